package itc

import (
	"sync/atomic"
	"testing"
)

func newTestRegistry() *registry[int] {
	return newRegistry[int]("logic", NewAction[int]("test").Kind(), &atomic.Uint64{})
}

func TestRegistry_CallAllInRegistrationOrder(t *testing.T) {
	r := newTestRegistry()

	var order []string
	a, b, c := &Receiver{id: "a"}, &Receiver{id: "b"}, &Receiver{id: "c"}
	r.add(&binding[int]{owner: a, fn: func(int) { order = append(order, "a") }})
	r.add(&binding[int]{owner: b, fn: func(int) { order = append(order, "b") }})
	r.add(&binding[int]{owner: c, fn: func(int) { order = append(order, "c") }})

	if n := r.callAll(1); n != 3 {
		t.Fatalf("expected 3 handlers called, got %d", n)
	}
	expected := []string{"a", "b", "c"}
	for i := range expected {
		if order[i] != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], order[i])
		}
	}
	if r.delivered.Load() != 3 {
		t.Errorf("expected delivered counter 3, got %d", r.delivered.Load())
	}
}

func TestRegistry_DoubleAddPanics(t *testing.T) {
	r := newTestRegistry()
	owner := &Receiver{id: "dup"}
	r.add(&binding[int]{owner: owner, fn: func(int) {}})

	v := expectViolation(t, func() {
		r.add(&binding[int]{owner: owner, fn: func(int) {}})
	})
	if v.Receiver != "dup" || v.Op != "join" {
		t.Errorf("unexpected violation %+v", v)
	}
	if r.count() != 1 {
		t.Errorf("expected registry unchanged with 1 binding, got %d", r.count())
	}
}

func TestRegistry_RemoveAbsentIsNoop(t *testing.T) {
	r := newTestRegistry()
	present := &Receiver{id: "present"}
	r.add(&binding[int]{owner: present, fn: func(int) {}})

	r.remove(&Receiver{id: "absent"})
	if r.count() != 1 {
		t.Errorf("expected 1 binding, got %d", r.count())
	}

	r.remove(present)
	r.remove(present)
	if r.count() != 0 {
		t.Errorf("expected 0 bindings, got %d", r.count())
	}
}

func TestRegistry_MutationDuringCallAll(t *testing.T) {
	r := newTestRegistry()

	var calls []string
	first, second, late := &Receiver{id: "first"}, &Receiver{id: "second"}, &Receiver{id: "late"}

	r.add(&binding[int]{owner: first, fn: func(int) {
		calls = append(calls, "first")
		// Leaving and joining from inside a handler must not disturb this call.
		r.remove(second)
		r.add(&binding[int]{owner: late, fn: func(int) { calls = append(calls, "late") }})
	}})
	r.add(&binding[int]{owner: second, fn: func(int) { calls = append(calls, "second") }})

	r.callAll(0)
	if len(calls) != 1 || calls[0] != "first" {
		t.Fatalf("expected only 'first' on the first call, got %v", calls)
	}

	calls = nil
	r.remove(first)
	r.callAll(0)
	if len(calls) != 1 || calls[0] != "late" {
		t.Fatalf("expected only 'late' on the second call, got %v", calls)
	}
}
