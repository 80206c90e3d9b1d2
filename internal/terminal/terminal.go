// Package terminal is the graphics front-end: a tcell screen drawn from the
// graphics domain and a key reader feeding the logic domain.
package terminal

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tonewire/internal/itc"
)

// Terminal owns a tcell screen.
type Terminal struct {
	screen tcell.Screen
	mu     sync.Mutex
	active bool
}

// New creates a terminal on the controlling tty.
func New() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(screen), nil
}

// NewWithScreen wraps an existing screen, such as a simulation screen.
func NewWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

// Screen returns the underlying screen.
func (t *Terminal) Screen() tcell.Screen {
	return t.screen
}

// Init initializes the screen.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	t.screen.Clear()
	t.active = true
	return nil
}

// Shutdown restores the terminal. ReadKeys returns once the screen is
// finalized. Calling Shutdown more than once is harmless.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return
	}
	t.active = false
	t.screen.Fini()
}

// ReadKeys polls the screen and sends every key press to bus until the
// screen is finalized. It runs on its own goroutine: PollEvent blocks, which
// no domain may do.
func (t *Terminal) ReadKeys(bus *itc.Bus) {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		switch e := ev.(type) {
		case *tcell.EventKey:
			if k, ok := convertKey(e); ok {
				itc.Send(bus, KeyAction.Data(k))
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}
