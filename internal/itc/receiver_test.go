package itc

import (
	"testing"
)

func TestJoin_RegistersEveryKind(t *testing.T) {
	bus := NewBus(Logic)

	r := Join(bus,
		On(testValue, func(int) {}),
		On(testText, func(string) {}),
	)

	if r.ID() == "" {
		t.Error("expected receiver to have an ID")
	}
	if bus.Receivers(testValue.Kind()) != 1 || bus.Receivers(testText.Kind()) != 1 {
		t.Fatal("expected receiver registered for both kinds")
	}
	if len(r.Kinds()) != 2 {
		t.Errorf("expected 2 kinds, got %d", len(r.Kinds()))
	}

	r.Close()
	if !r.IsClosed() {
		t.Error("expected receiver to report closed")
	}
	if bus.Receivers(testValue.Kind()) != 0 || bus.Receivers(testText.Kind()) != 0 {
		t.Error("expected receiver removed from every registry")
	}
}

func TestJoin_DuplicateKindPanicsWithoutPartialRegistration(t *testing.T) {
	bus := NewBus(Logic)

	v := expectViolation(t, func() {
		Join(bus,
			On(testValue, func(int) {}),
			On(testText, func(string) {}),
			On(testValue, func(int) {}),
		)
	})
	if v.Op != "join" || v.Kind != testValue.Kind() {
		t.Errorf("unexpected violation %+v", v)
	}
	if bus.Receivers(testValue.Kind()) != 0 || bus.Receivers(testText.Kind()) != 0 {
		t.Error("expected no registration after a rejected join")
	}
}

func TestJoinBuses_DuplicateBusPanicsWithoutPartialRegistration(t *testing.T) {
	bus := NewBus(Logic)
	other := NewBus(Graphics)

	v := expectViolation(t, func() {
		JoinBuses([]*Bus{other, bus, bus},
			On(testValue, func(int) {}),
			On(testText, func(string) {}),
		)
	})
	if v.Op != "join" || v.Bus != "logic" {
		t.Errorf("unexpected violation %+v", v)
	}
	for _, b := range []*Bus{bus, other} {
		if b.Receivers(testValue.Kind()) != 0 || b.Receivers(testText.Kind()) != 0 {
			t.Errorf("expected no registration on %s after a rejected join", b.Name())
		}
	}
}

func TestJoinBuses_NilBusPanics(t *testing.T) {
	bus := NewBus(Logic)

	expectViolation(t, func() {
		JoinBuses([]*Bus{bus, nil}, On(testValue, func(int) {}))
	})
	if bus.Receivers(testValue.Kind()) != 0 {
		t.Error("expected no registration after a rejected join")
	}
}

func TestJoin_EquivalentActionsShareRegistry(t *testing.T) {
	bus := NewBus(Logic)

	// Declared separately, but same tag and argument type.
	again := NewAction[int]("test.value")

	got := 0
	r := Join(bus, On(again, func(v int) { got = v }))
	defer r.Close()

	Send(bus, testValue.Data(9))
	bus.Drain()
	if got != 9 {
		t.Errorf("expected 9 through the equivalent action, got %d", got)
	}
}

func TestReceiver_CloseTwicePanics(t *testing.T) {
	bus := NewBus(Audio)
	r := Join(bus, On(testValue, func(int) {}))
	r.Close()

	v := expectViolation(t, r.Close)
	if v.Op != "close" || v.Receiver != r.ID() {
		t.Errorf("unexpected violation %+v", v)
	}
}

func TestJoinBuses(t *testing.T) {
	buses := NewBuses()

	var seen []BusID
	r := JoinBuses([]*Bus{buses.Audio, buses.Graphics}, On(testValue, func(v int) {
		seen = append(seen, BusID(v))
	}))

	Send(buses.Audio, testValue.Data(int(Audio)))
	Send(buses.Graphics, testValue.Data(int(Graphics)))
	buses.Audio.Drain()
	buses.Graphics.Drain()

	if len(seen) != 2 {
		t.Fatalf("expected delivery on both buses, got %v", seen)
	}
	if len(r.Kinds()) != 2 || len(r.Buses()) != 2 {
		t.Errorf("expected 2 registrations over 2 buses, got %d kinds, %d buses", len(r.Kinds()), len(r.Buses()))
	}

	r.Close()
	if buses.Audio.Receivers(testValue.Kind()) != 0 || buses.Graphics.Receivers(testValue.Kind()) != 0 {
		t.Error("expected receiver removed from both buses")
	}
}

func TestReceiver_CloseInsideOwnHandler(t *testing.T) {
	bus := NewBus(Logic)

	calls := 0
	var r *Receiver
	r = Join(bus, On(testValue, func(int) {
		calls++
		r.Close()
	}))

	Send(bus, testValue.Data(1))
	Send(bus, testValue.Data(2))
	bus.Drain()

	if calls != 1 {
		t.Errorf("expected exactly 1 call before self-close, got %d", calls)
	}
}

func TestReceiver_JoinInsideHandler(t *testing.T) {
	bus := NewBus(Logic)

	var late *Receiver
	lateCalls := 0
	first := Join(bus, On(testValue, func(int) {
		if late == nil {
			late = Join(bus, On(testValue, func(int) { lateCalls++ }))
		}
	}))
	defer first.Close()

	Send(bus, testValue.Data(1))
	Send(bus, testValue.Data(2))
	bus.Drain()
	defer late.Close()

	// Joined during the first dispatch, so it sees the second one only.
	if lateCalls != 1 {
		t.Errorf("expected late receiver called once, got %d", lateCalls)
	}
}

func TestOn_NilHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected On with nil handler to panic")
		}
	}()
	On[int](testValue, nil)
}
