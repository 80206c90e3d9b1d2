package app

import (
	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/props"
)

// Screen labels, in property order.
var ScreenLabels = []string{"fx1", "master", "settings"}

// Key mode labels, in property order.
var KeyModeLabels = []string{"midi", "seq"}

// State is the UI state. It is owned by the logic domain and mirrored to
// graphics through the property change actions.
type State struct {
	ui  *props.Sender
	nav *props.Sender

	Screen  *props.Property[int]
	KeyMode *props.Property[int]
	Octave  *props.Property[int]

	// Selected is the highlighted row of the editor. It lives on its own
	// sender so it is not part of the editable group.
	Selected *props.Property[int]
}

// NewState declares the UI properties on the logic and graphics buses.
// rows is the number of editable rows Selected ranges over.
func NewState(buses *itc.Buses, rows int) (*State, error) {
	ui, err := props.NewSender("ui", buses.Logic, buses.Graphics)
	if err != nil {
		return nil, err
	}
	nav, err := props.NewSender("nav", buses.Logic, buses.Graphics)
	if err != nil {
		return nil, err
	}

	s := &State{ui: ui, nav: nav}
	if s.Screen, err = props.NewProperty(ui, "screen", 0, props.Limits[int]{Min: 0, Max: len(ScreenLabels) - 1}); err != nil {
		return nil, err
	}
	if s.KeyMode, err = props.NewProperty(ui, "key_mode", 0, props.Limits[int]{Min: 0, Max: len(KeyModeLabels) - 1}); err != nil {
		return nil, err
	}
	if s.Octave, err = props.NewProperty(ui, "octave", 0, props.Limits[int]{Min: -4, Max: 4}); err != nil {
		return nil, err
	}
	if s.Selected, err = props.NewProperty(nav, "selected", 0, props.Limits[int]{Min: 0, Max: max(rows-1, 0)}); err != nil {
		return nil, err
	}
	return s, nil
}

// Group returns the editable UI properties.
func (s *State) Group() *props.Group {
	return s.ui.Group()
}
