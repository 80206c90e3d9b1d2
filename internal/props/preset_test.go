package props

import (
	"errors"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/tonewire/internal/itc"
)

func TestSnapshot(t *testing.T) {
	bs := itc.NewBuses()
	s := newChorusSender(t, bs)
	newDelay(t, s)

	data, err := Snapshot(s.Group())
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if got := gjson.GetBytes(data, "chorus.delay").Float(); got != 0.8 {
		t.Errorf("expected chorus.delay 0.8, got %v in %s", got, data)
	}
}

func TestApply(t *testing.T) {
	bs := itc.NewBuses()
	s := newChorusSender(t, bs)
	p := newDelay(t, s)

	n, err := Apply(s.Group(), []byte(`{"chorus":{"delay":0.83,"unknown":1},"other":{"x":2}}`))
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 change, got %d", n)
	}
	if p.Get() != 0.83 {
		t.Errorf("expected 0.83, got %v", p.Get())
	}
	if bs.Audio.Pending() != 1 {
		t.Errorf("expected apply to send the change, pending %d", bs.Audio.Pending())
	}
}

func TestApply_RoundTrip(t *testing.T) {
	bs := itc.NewBuses()
	s := newChorusSender(t, bs)
	p := newDelay(t, s)

	p.Set(0.3)
	data, err := Snapshot(s.Group())
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	p.Set(0.9)

	if _, err := Apply(s.Group(), data); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if p.Get() != 0.3 {
		t.Errorf("expected 0.3 restored, got %v", p.Get())
	}
}

func TestApply_Invalid(t *testing.T) {
	bs := itc.NewBuses()
	s := newChorusSender(t, bs)
	newDelay(t, s)

	if _, err := Apply(s.Group(), []byte(`{not json`)); !errors.Is(err, ErrInvalidPreset) {
		t.Errorf("expected ErrInvalidPreset, got %v", err)
	}
	if _, err := Apply(s.Group(), []byte(`{"chorus":{"delay":"fast"}}`)); !errors.Is(err, ErrInvalidPreset) {
		t.Errorf("expected ErrInvalidPreset for string value, got %v", err)
	}
}
