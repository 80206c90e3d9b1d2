package itc

import (
	"sync"
	"sync/atomic"
)

// HandlerFunc handles the arguments of one action kind.
type HandlerFunc[T any] func(args T)

// binding is a registry's non-owning reference to one receiver's handler.
type binding[T any] struct {
	owner   *Receiver
	fn      HandlerFunc[T]
	removed atomic.Bool
}

// registrar is the type-erased view of a registry used by receivers and the bus.
type registrar interface {
	kindOf() Kind
	remove(owner *Receiver)
	count() int
}

// registry holds the receivers of one action kind on one bus, in registration
// order. Readers see an immutable snapshot, so callAll never takes a lock and
// tolerates handlers that join or leave while it runs.
type registry[T any] struct {
	bus  string
	kind Kind

	mu       sync.Mutex // serializes writers
	bindings atomic.Pointer[[]*binding[T]]

	// pending recycles dispatches of this kind so that steady-state sends do
	// not allocate.
	pending sync.Pool

	delivered *atomic.Uint64
}

// newRegistry creates an empty registry.
func newRegistry[T any](bus string, kind Kind, delivered *atomic.Uint64) *registry[T] {
	r := &registry[T]{bus: bus, kind: kind, delivered: delivered}
	r.pending.New = func() any { return new(pending[T]) }
	empty := make([]*binding[T], 0)
	r.bindings.Store(&empty)
	return r
}

// snapshot returns the current bindings. The slice must not be modified.
func (r *registry[T]) snapshot() []*binding[T] {
	return *r.bindings.Load()
}

// add appends a binding. Adding a receiver that is already present is a
// lifetime bug and panics.
func (r *registry[T]) add(b *binding[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snapshot()
	for _, existing := range cur {
		if existing.owner == b.owner {
			violate(&ContractViolation{
				Op:       "join",
				Bus:      r.bus,
				Kind:     r.kind,
				Receiver: b.owner.ID(),
				Reason:   "receiver already registered",
			})
		}
	}

	next := make([]*binding[T], len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, b)
	r.bindings.Store(&next)
}

// remove erases the binding owned by owner. Removing an absent receiver is a no-op.
func (r *registry[T]) remove(owner *Receiver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snapshot()
	for i, b := range cur {
		if b.owner != owner {
			continue
		}
		b.removed.Store(true)

		next := make([]*binding[T], 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		r.bindings.Store(&next)
		return
	}
}

// callAll invokes every registered handler in registration order and returns
// the number of handlers called. A receiver removed by an earlier handler in
// the same call is skipped.
func (r *registry[T]) callAll(args T) int {
	n := 0
	for _, b := range r.snapshot() {
		if b.removed.Load() {
			continue
		}
		b.fn(args)
		n++
	}
	if r.delivered != nil {
		r.delivered.Add(uint64(n))
	}
	return n
}

func (r *registry[T]) kindOf() Kind {
	return r.kind
}

func (r *registry[T]) count() int {
	return len(r.snapshot())
}
