package terminal

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/props"
)

const (
	tagWidth   = 18
	valueWidth = 10
	barWidth   = 24
)

var (
	styleDefault  = tcell.StyleDefault
	styleTitle    = tcell.StyleDefault.Bold(true)
	styleSelected = tcell.StyleDefault.Reverse(true)
	styleBar      = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleMeter    = tcell.StyleDefault.Foreground(tcell.ColorOlive)
)

// row is the graphics-side mirror of one property.
type row struct {
	tag    string
	lo, hi float64
	value  float64
	labels []string
}

// meter displays a value published through a Shared cell, in [0, 1].
type meter struct {
	label string
	cell  *itc.Shared[float64]
}

// View draws a list of properties and meters. Its state is only touched by
// handlers on the graphics bus and by Render, both on the graphics goroutine.
type View struct {
	screen   tcell.Screen
	title    string
	rows     []row
	index    map[string]int
	selected int
	meters   []meter
	recv     *itc.Receiver
	dirty    bool
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithTitle sets the header line.
func WithTitle(title string) ViewOption {
	return func(v *View) {
		v.title = title
	}
}

// WithLabels displays the integer property tag by name instead of number.
func WithLabels(tag string, labels ...string) ViewOption {
	return func(v *View) {
		if i, ok := v.index[tag]; ok {
			v.rows[i].labels = labels
		}
	}
}

// WithMeter adds a meter reading cell every frame.
func WithMeter(label string, cell *itc.Shared[float64]) ViewOption {
	return func(v *View) {
		v.meters = append(v.meters, meter{label: label, cell: cell})
	}
}

// NewView creates a view of fields on screen and joins bus to follow their
// changes. selection, if not nil, is the index of the highlighted row and is
// followed the same way. The initial values are read from the fields, so
// NewView must run before the owning domain starts.
func NewView(screen tcell.Screen, bus *itc.Bus, fields *props.Group, selection *props.Property[int], opts ...ViewOption) *View {
	v := &View{
		screen: screen,
		index:  make(map[string]int),
		dirty:  true,
	}
	for _, f := range fields.Fields() {
		lo, hi := f.Bounds()
		v.index[f.Tag()] = len(v.rows)
		v.rows = append(v.rows, row{tag: f.Tag(), lo: lo, hi: hi, value: f.Float()})
	}
	for _, opt := range opts {
		opt(v)
	}

	handlings := fields.Watch(v.update)
	if selection != nil {
		v.selected = selection.Get()
		handlings = append(handlings, selection.On(v.selectRow))
	}
	v.recv = itc.Join(bus, handlings...)
	return v
}

// Close leaves the graphics bus.
func (v *View) Close() {
	v.recv.Close()
}

// Value returns the displayed value of tag.
func (v *View) Value(tag string) (float64, bool) {
	i, ok := v.index[tag]
	if !ok {
		return 0, false
	}
	return v.rows[i].value, true
}

// Selected returns the highlighted row.
func (v *View) Selected() int {
	return v.selected
}

func (v *View) update(tag string, value float64) {
	if i, ok := v.index[tag]; ok {
		v.rows[i].value = value
		v.dirty = true
	}
}

func (v *View) selectRow(i int) {
	v.selected = i
	v.dirty = true
}

// Render draws the view if anything changed. Meters are redrawn every frame.
// Pass it to domain.WithCycle on the graphics driver.
func (v *View) Render(time.Time) {
	if !v.dirty && len(v.meters) == 0 {
		return
	}
	v.dirty = false

	v.screen.Clear()
	y := 0
	if v.title != "" {
		drawText(v.screen, 0, y, styleTitle, v.title)
		y += 2
	}

	for i, r := range v.rows {
		style := styleDefault
		if i == v.selected {
			style = styleSelected
		}
		drawText(v.screen, 0, y, style, fmt.Sprintf("%-*s", tagWidth, r.tag))
		drawText(v.screen, tagWidth+1, y, style, fmt.Sprintf("%*s", valueWidth, r.format()))
		drawBar(v.screen, tagWidth+valueWidth+2, y, styleBar, r.fraction())
		y++
	}

	if len(v.meters) > 0 {
		y++
		for _, m := range v.meters {
			drawText(v.screen, 0, y, styleDefault, fmt.Sprintf("%-*s", tagWidth, m.label))
			drawBar(v.screen, tagWidth+valueWidth+2, y, styleMeter, m.cell.Load())
			y++
		}
	}

	v.screen.Show()
}

func (r row) format() string {
	if len(r.labels) > 0 {
		i := int(math.Round(r.value - r.lo))
		if i >= 0 && i < len(r.labels) {
			return r.labels[i]
		}
	}
	if r.value == math.Trunc(r.value) && math.Abs(r.value) < 1e6 {
		return fmt.Sprintf("%d", int64(r.value))
	}
	return fmt.Sprintf("%.2f", r.value)
}

func (r row) fraction() float64 {
	if r.hi <= r.lo {
		return 0
	}
	return (r.value - r.lo) / (r.hi - r.lo)
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, ch := range text {
		s.SetContent(x, y, ch, nil, style)
		x++
	}
}

func drawBar(s tcell.Screen, x, y int, style tcell.Style, fraction float64) {
	fraction = math.Max(0, math.Min(1, fraction))
	filled := int(math.Round(fraction * barWidth))
	drawText(s, x, y, style, "["+strings.Repeat("#", filled)+strings.Repeat(" ", barWidth-filled)+"]")
}
