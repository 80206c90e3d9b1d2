package itc

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Handling pairs an action kind with the handler a receiver supplies for it.
// Build one with On.
type Handling interface {
	kind() Kind
	join(b *Bus, r *Receiver) registrar
}

type handling[T any] struct {
	action *Action[T]
	fn     HandlerFunc[T]
}

// On declares that a receiver handles action with fn.
func On[T any](action *Action[T], fn HandlerFunc[T]) Handling {
	if action == nil || fn == nil {
		panic("itc: On requires a non-nil action and handler")
	}
	return handling[T]{action: action, fn: fn}
}

func (h handling[T]) kind() Kind {
	return h.action.kind
}

func (h handling[T]) join(b *Bus, r *Receiver) registrar {
	reg := registryFor(b, h.action)
	reg.add(&binding[T]{owner: r, fn: h.fn})
	return reg
}

// Receiver is a set of handlers whose registry membership is bound to its
// lifetime: Join registers it for every declared kind before returning, and
// Close removes it from every registry it joined.
//
// Only Join and Close mutate registries, so a receiver cannot be left dangling
// in a registry as long as its owner closes it on teardown.
type Receiver struct {
	id     string
	joined []registrar
	buses  []*Bus
	closed atomic.Bool
}

// Join creates a receiver registered on b for every handling.
// Declaring the same kind twice panics with a *ContractViolation.
func Join(b *Bus, handlings ...Handling) *Receiver {
	return JoinBuses([]*Bus{b}, handlings...)
}

// JoinBuses creates a receiver registered on every bus for every handling.
func JoinBuses(buses []*Bus, handlings ...Handling) *Receiver {
	r := &Receiver{
		id:    uuid.NewString(),
		buses: buses,
	}

	// Validate before touching any registry so a bad declaration leaves no
	// partial registration behind.
	onBus := make(map[*Bus]bool, len(buses))
	for _, b := range buses {
		if b == nil {
			violate(&ContractViolation{Op: "join", Receiver: r.id, Reason: "nil bus"})
		}
		if onBus[b] {
			violate(&ContractViolation{
				Op:       "join",
				Bus:      b.Name(),
				Receiver: r.id,
				Reason:   "bus listed twice",
			})
		}
		onBus[b] = true
	}

	seen := make(map[Kind]bool, len(handlings))
	for _, h := range handlings {
		k := h.kind()
		if seen[k] {
			violate(&ContractViolation{
				Op:       "join",
				Kind:     k,
				Receiver: r.id,
				Reason:   "kind declared twice",
			})
		}
		seen[k] = true
	}

	r.joined = make([]registrar, 0, len(buses)*len(handlings))
	for _, b := range buses {
		for _, h := range handlings {
			r.joined = append(r.joined, h.join(b, r))
		}
	}
	return r
}

// ID returns the receiver's unique identifier.
func (r *Receiver) ID() string {
	return r.id
}

// Buses returns the buses the receiver joined.
func (r *Receiver) Buses() []*Bus {
	return r.buses
}

// Kinds returns the kinds the receiver is registered for, once per bus joined.
func (r *Receiver) Kinds() []Kind {
	kinds := make([]Kind, len(r.joined))
	for i, reg := range r.joined {
		kinds[i] = reg.kindOf()
	}
	return kinds
}

// IsClosed returns true once Close has been called.
func (r *Receiver) IsClosed() bool {
	return r.closed.Load()
}

// Close removes the receiver from every registry it joined. After Close
// returns, none of its handlers will be called by a later drain. Closing twice
// panics with a *ContractViolation.
func (r *Receiver) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		violate(&ContractViolation{
			Op:       "close",
			Receiver: r.id,
			Reason:   "receiver closed twice",
		})
	}
	for _, reg := range r.joined {
		reg.remove(r)
	}
}
