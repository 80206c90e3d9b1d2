package props

import (
	"errors"
	"math"
	"testing"

	"github.com/dshills/tonewire/internal/itc"
)

func newChorusSender(t *testing.T, bs *itc.Buses) *Sender {
	t.Helper()
	s, err := NewSender("chorus", bs.Audio, bs.Graphics)
	if err != nil {
		t.Fatalf("NewSender() failed: %v", err)
	}
	return s
}

func newDelay(t *testing.T, s *Sender) *Property[float64] {
	t.Helper()
	p, err := NewProperty(s, "delay", 0.8, Limits[float64]{Min: 0, Max: 1}, WithStep(0.01))
	if err != nil {
		t.Fatalf("NewProperty() failed: %v", err)
	}
	return p
}

func TestNewSender_Binding(t *testing.T) {
	bs := itc.NewBuses()

	tests := []struct {
		name  string
		buses []*itc.Bus
		err   error
	}{
		{"none", nil, ErrInvalidBinding},
		{"one", []*itc.Bus{bs.Logic}, nil},
		{"two", []*itc.Bus{bs.Audio, bs.Graphics}, nil},
		{"three", []*itc.Bus{bs.Audio, bs.Graphics, bs.Logic}, ErrInvalidBinding},
		{"same bus twice", []*itc.Bus{bs.Audio, bs.Audio}, ErrInvalidBinding},
		{"nil bus", []*itc.Bus{nil}, ErrInvalidBinding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSender("engine", tt.buses...)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestNewSender_InvalidName(t *testing.T) {
	bs := itc.NewBuses()
	for _, name := range []string{"", "a.b", "with space", "x*"} {
		if _, err := NewSender(name, bs.Logic); !errors.Is(err, ErrInvalidName) {
			t.Errorf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestNewProperty_Errors(t *testing.T) {
	bs := itc.NewBuses()
	s := newChorusSender(t, bs)

	if _, err := NewProperty(s, "bad", 0.5, Limits[float64]{Min: 1, Max: 0}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := NewProperty(s, "neg", 0.5, Limits[float64]{Min: 0, Max: 1}, WithStep(-0.1)); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("expected ErrInvalidStep, got %v", err)
	}

	newDelay(t, s)
	if _, err := NewProperty(s, "delay", 0.1, Limits[float64]{Min: 0, Max: 1}); !errors.Is(err, ErrDuplicateProperty) {
		t.Errorf("expected ErrDuplicateProperty, got %v", err)
	}
}

func TestNewProperty_DefaultConstrainedWithoutSend(t *testing.T) {
	bs := itc.NewBuses()
	s := newChorusSender(t, bs)

	p, err := NewProperty(s, "depth", 1.7, Limits[float64]{Min: 0, Max: 1}, WithStep(0.01))
	if err != nil {
		t.Fatalf("NewProperty() failed: %v", err)
	}
	if p.Get() != 1 {
		t.Errorf("expected default clamped to 1, got %v", p.Get())
	}
	if bs.Audio.Pending() != 0 || bs.Graphics.Pending() != 0 {
		t.Error("construction should not send")
	}
}

func TestProperty_Tag(t *testing.T) {
	bs := itc.NewBuses()
	p := newDelay(t, newChorusSender(t, bs))

	if p.Tag() != "chorus.delay" {
		t.Errorf("expected tag chorus.delay, got %s", p.Tag())
	}
	if p.Action().Tag() != "chorus.delay" {
		t.Errorf("expected action tag chorus.delay, got %s", p.Action().Tag())
	}
	if p.Name() != "delay" {
		t.Errorf("expected name delay, got %s", p.Name())
	}
}

func TestProperty_ChorusDelayScenario(t *testing.T) {
	bs := itc.NewBuses()
	p := newDelay(t, newChorusSender(t, bs))

	var audio, screen []float64
	ra := itc.Join(bs.Audio, p.On(func(v float64) { audio = append(audio, v) }))
	defer ra.Close()
	rg := itc.Join(bs.Graphics, p.On(func(v float64) { screen = append(screen, v) }))
	defer rg.Close()

	if !p.Set(0.83) {
		t.Fatal("expected Set(0.83) to change the value")
	}
	if p.Get() != 0.83 {
		t.Errorf("expected 0.83, got %v", p.Get())
	}
	bs.Audio.Drain()
	bs.Graphics.Drain()
	if len(audio) != 1 || audio[0] != 0.83 {
		t.Errorf("expected one audio change of 0.83, got %v", audio)
	}
	if len(screen) != 1 || screen[0] != 0.83 {
		t.Errorf("expected one screen change of 0.83, got %v", screen)
	}

	if p.Set(0.83) {
		t.Error("expected repeated Set(0.83) to report no change")
	}
	if n := bs.Audio.Drain() + bs.Graphics.Drain(); n != 0 {
		t.Errorf("expected nothing sent, drained %d", n)
	}
}

func TestProperty_SetGetSendsNothing(t *testing.T) {
	bs := itc.NewBuses()
	p := newDelay(t, newChorusSender(t, bs))

	p.Set(p.Get())
	if bs.Audio.Pending() != 0 || bs.Graphics.Pending() != 0 {
		t.Error("Set(Get()) should not send")
	}
}

func TestProperty_ClampAndQuantize(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"above max", 1.5, 1},
		{"below min", -0.2, 0},
		{"round down", 0.834, 0.83},
		{"round up", 0.836, 0.84},
		{"exact", 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := itc.NewBuses()
			p := newDelay(t, newChorusSender(t, bs))
			p.Set(tt.in)
			if math.Abs(p.Get()-tt.want) > 1e-12 {
				t.Errorf("Set(%v): expected %v, got %v", tt.in, tt.want, p.Get())
			}
		})
	}
}

func TestProperty_QuantizeNonReciprocalStep(t *testing.T) {
	bs := itc.NewBuses()
	s := newChorusSender(t, bs)
	p, err := NewProperty(s, "q", 0, Limits[float64]{Min: -1, Max: 1}, WithStep(0.3))
	if err != nil {
		t.Fatalf("NewProperty() failed: %v", err)
	}

	p.Set(0.5)
	if math.Abs(p.Get()-0.6) > 1e-12 {
		t.Errorf("expected 0.6, got %v", p.Get())
	}
	// 1 rounds to 3 steps.
	p.Set(1)
	if math.Abs(p.Get()-0.9) > 1e-12 {
		t.Errorf("expected 0.9, got %v", p.Get())
	}
}

func TestProperty_StepNone(t *testing.T) {
	bs := itc.NewBuses()
	s := newChorusSender(t, bs)
	p, err := NewProperty(s, "free", 0, Limits[float64]{Min: 0, Max: 1},
		WithStep(0.1), WithPolicy[float64](StepNone))
	if err != nil {
		t.Fatalf("NewProperty() failed: %v", err)
	}

	p.Set(0.123)
	if p.Get() != 0.123 {
		t.Errorf("expected unquantized 0.123, got %v", p.Get())
	}
}

func TestProperty_NaNIgnored(t *testing.T) {
	bs := itc.NewBuses()
	p := newDelay(t, newChorusSender(t, bs))

	if p.Set(math.NaN()) {
		t.Error("expected NaN to be ignored")
	}
	if p.Get() != 0.8 {
		t.Errorf("expected value unchanged, got %v", p.Get())
	}
	if p.SetFloat(math.NaN()) {
		t.Error("expected NaN to be ignored by SetFloat")
	}
}

func TestProperty_Step(t *testing.T) {
	bs := itc.NewBuses()
	p := newDelay(t, newChorusSender(t, bs))

	p.Step(3)
	if math.Abs(p.Get()-0.83) > 1e-12 {
		t.Errorf("expected 0.83 after 3 steps, got %v", p.Get())
	}
	p.Step(-100)
	if p.Get() != 0 {
		t.Errorf("expected clamp to 0, got %v", p.Get())
	}
	if p.Step(-1) {
		t.Error("expected no change stepping below min")
	}
}

func TestProperty_Integer(t *testing.T) {
	bs := itc.NewBuses()
	s, err := NewSender("ui", bs.Logic, bs.Graphics)
	if err != nil {
		t.Fatalf("NewSender() failed: %v", err)
	}
	octave, err := NewProperty(s, "octave", 0, Limits[int]{Min: -4, Max: 4})
	if err != nil {
		t.Fatalf("NewProperty() failed: %v", err)
	}

	octave.Step(1)
	if octave.Get() != 1 {
		t.Errorf("expected 1, got %d", octave.Get())
	}
	octave.SetFloat(2.6)
	if octave.Get() != 3 {
		t.Errorf("expected SetFloat to round to 3, got %d", octave.Get())
	}
	octave.Step(10)
	if octave.Get() != 4 {
		t.Errorf("expected clamp to 4, got %d", octave.Get())
	}

	var got []int
	r := itc.Join(bs.Logic, octave.On(func(v int) { got = append(got, v) }))
	defer r.Close()
	bs.Logic.Drain()
	if len(got) != 3 || got[2] != 4 {
		t.Errorf("expected changes [1 3 4], got %v", got)
	}
}

func TestProperty_IntegerStepSize(t *testing.T) {
	bs := itc.NewBuses()
	s, _ := NewSender("ui", bs.Logic)
	p, err := NewProperty(s, "even", 0, Limits[int]{Min: -10, Max: 10}, WithStep(2))
	if err != nil {
		t.Fatalf("NewProperty() failed: %v", err)
	}

	p.Set(3)
	if p.Get() != 4 {
		t.Errorf("expected 3 to round to 4, got %d", p.Get())
	}
	p.Step(-1)
	if p.Get() != 2 {
		t.Errorf("expected 2, got %d", p.Get())
	}
}

func TestProperty_SendsOnlyToSenderBuses(t *testing.T) {
	bs := itc.NewBuses()
	p := newDelay(t, newChorusSender(t, bs))

	p.Set(0.1)
	if bs.Audio.Pending() != 1 || bs.Graphics.Pending() != 1 {
		t.Errorf("expected one pending on audio and graphics, got %d and %d",
			bs.Audio.Pending(), bs.Graphics.Pending())
	}
	if bs.Logic.Pending() != 0 {
		t.Errorf("expected nothing on logic, got %d", bs.Logic.Pending())
	}
}
