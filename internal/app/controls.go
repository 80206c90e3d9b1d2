package app

import (
	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/logging"
	"github.com/dshills/tonewire/internal/props"
	"github.com/dshills/tonewire/internal/terminal"
)

// coarseSteps is how many steps a shifted arrow moves.
const coarseSteps = 10

// Controls maps key presses to property edits. It runs in the logic domain,
// the owner of every property it touches.
type Controls struct {
	state  *State
	rows   []props.Field
	logger *logging.Logger
	quit   func()
	save   func() error
	recv   *itc.Receiver
}

// NewControls joins logic to handle terminal keys. rows are the editable
// fields in display order; quit is called for q, Esc or Ctrl-C; save, if
// not nil, is called for s.
func NewControls(logic *itc.Bus, state *State, rows *props.Group, logger *logging.Logger, quit func(), save func() error) *Controls {
	c := &Controls{
		state:  state,
		rows:   rows.Fields(),
		logger: logger.WithComponent("controls"),
		quit:   quit,
		save:   save,
	}
	c.recv = itc.Join(logic, itc.On(terminal.KeyAction, c.handleKey))
	return c
}

// Close leaves the logic bus.
func (c *Controls) Close() {
	c.recv.Close()
}

func (c *Controls) handleKey(k terminal.Key) {
	switch k.Code {
	case terminal.KeyUp:
		c.state.Selected.Step(-1)
	case terminal.KeyDown:
		c.state.Selected.Step(1)
	case terminal.KeyLeft:
		c.stepSelected(-1, k.Shift)
	case terminal.KeyRight:
		c.stepSelected(1, k.Shift)
	case terminal.KeyPageUp:
		c.stepSelected(coarseSteps, false)
	case terminal.KeyPageDown:
		c.stepSelected(-coarseSteps, false)
	case terminal.KeyTab:
		c.cycle(c.state.Screen, 1)
	case terminal.KeyBacktab:
		c.cycle(c.state.Screen, -1)
	case terminal.KeyEscape, terminal.KeyCtrlC:
		c.quit()
	case terminal.KeyRune:
		c.handleRune(k.Rune)
	}
}

func (c *Controls) handleRune(r rune) {
	switch r {
	case 'q':
		c.quit()
	case 'z':
		c.state.Octave.Step(-1)
	case 'x':
		c.state.Octave.Step(1)
	case 'm':
		c.cycle(c.state.KeyMode, 1)
	case 's':
		if c.save == nil {
			return
		}
		if err := c.save(); err != nil {
			c.logger.Error("save preset: %v", err)
		}
	}
}

func (c *Controls) stepSelected(n int, coarse bool) {
	i := c.state.Selected.Get()
	if i < 0 || i >= len(c.rows) {
		return
	}
	if coarse {
		n *= coarseSteps
	}
	c.rows[i].Step(n)
}

// cycle steps an enum property, wrapping at either end.
func (c *Controls) cycle(p *props.Property[int], n int) {
	lim := p.Limits()
	size := lim.Max - lim.Min + 1
	v := ((p.Get()-lim.Min+n)%size+size)%size + lim.Min
	p.Set(v)
}
