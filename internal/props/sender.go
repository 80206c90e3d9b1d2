package props

import (
	"fmt"

	"github.com/dshills/tonewire/internal/itc"
)

// Sender couples a set of properties to the buses their changes are sent on.
// The binding is fixed at construction: an engine sender typically targets
// Audio and Graphics, a UI sender Logic and Graphics.
type Sender struct {
	name  string
	buses []*itc.Bus
	group *Group
}

// NewSender creates a sender named name bound to one or two buses.
func NewSender(name string, buses ...*itc.Bus) (*Sender, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: sender %q", ErrInvalidName, name)
	}
	if len(buses) < 1 || len(buses) > 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBinding, len(buses))
	}
	for _, b := range buses {
		if b == nil {
			return nil, fmt.Errorf("%w: nil bus", ErrInvalidBinding)
		}
	}
	if len(buses) == 2 && buses[0] == buses[1] {
		return nil, fmt.Errorf("%w: bus %s bound twice", ErrInvalidBinding, buses[0].Name())
	}
	return &Sender{
		name:  name,
		buses: append([]*itc.Bus(nil), buses...),
		group: NewGroup(),
	}, nil
}

// Name returns the sender name, the prefix of every property tag it owns.
func (s *Sender) Name() string {
	return s.name
}

// Buses returns the buses the sender is bound to.
func (s *Sender) Buses() []*itc.Bus {
	return s.buses
}

// Group returns the properties declared on the sender, in declaration order.
func (s *Sender) Group() *Group {
	return s.group
}

// validName reports whether name can be used as a path segment in tags and
// preset documents.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
