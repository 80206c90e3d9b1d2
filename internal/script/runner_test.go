package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/props"
)

type fixture struct {
	buses *itc.Buses
	delay *props.Property[float64]
	group *props.Group
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bs := itc.NewBuses()
	s, err := props.NewSender("chorus", bs.Audio, bs.Graphics)
	if err != nil {
		t.Fatalf("NewSender() failed: %v", err)
	}
	delay, err := props.NewProperty(s, "delay", 0.8, props.Limits[float64]{Min: 0, Max: 1}, props.WithStep(0.01))
	if err != nil {
		t.Fatalf("NewProperty() failed: %v", err)
	}
	return &fixture{buses: bs, delay: delay, group: s.Group()}
}

func TestRunner_SetGet(t *testing.T) {
	f := newFixture(t)
	r := NewRunner(f.group, nil)
	defer r.Close()

	if err := r.DoString(`changed = set("chorus.delay", 0.83)`); err != nil {
		t.Fatalf("DoString() failed: %v", err)
	}
	if f.delay.Get() != 0.83 {
		t.Errorf("expected 0.83, got %v", f.delay.Get())
	}
	if f.buses.Audio.Pending() != 1 {
		t.Errorf("expected the change on the audio bus, pending %d", f.buses.Audio.Pending())
	}

	if err := r.DoString(`assert(changed == true)
assert(get("chorus.delay") == 0.83)
assert(set("chorus.delay", 0.83) == false)`); err != nil {
		t.Errorf("assertions failed: %v", err)
	}
}

func TestRunner_StepAndNames(t *testing.T) {
	f := newFixture(t)
	r := NewRunner(f.group, nil)
	defer r.Close()

	if err := r.DoString(`step("chorus.delay", -2)
local n = names()
assert(#n == 1 and n[1] == "chorus.delay")`); err != nil {
		t.Fatalf("DoString() failed: %v", err)
	}
	if f.delay.Get() != 0.78 {
		t.Errorf("expected 0.78, got %v", f.delay.Get())
	}
}

func TestRunner_UnknownProperty(t *testing.T) {
	f := newFixture(t)
	r := NewRunner(f.group, nil)
	defer r.Close()

	err := r.DoString(`set("chorus.nope", 1)`)
	var serr *ScriptError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ScriptError, got %v", err)
	}
	if !strings.Contains(err.Error(), "chorus.nope") {
		t.Errorf("expected tag in error, got %v", err)
	}
}

func TestRunner_Sandbox(t *testing.T) {
	f := newFixture(t)
	r := NewRunner(f.group, nil)
	defer r.Close()

	if err := r.DoString(`assert(os == nil and io == nil and dofile == nil)`); err != nil {
		t.Errorf("expected host libraries to be absent: %v", err)
	}
}

func TestRunner_Timeout(t *testing.T) {
	f := newFixture(t)
	r := NewRunner(f.group, nil, WithCallTimeout(10*time.Millisecond))
	defer r.Close()

	if err := r.DoString(`while true do end`); err == nil {
		t.Error("expected runaway script to be stopped")
	}
}

func TestRunner_Tick(t *testing.T) {
	f := newFixture(t)
	r := NewRunner(f.group, nil)
	defer r.Close()

	if err := r.DoString(`function on_tick(t) set("chorus.delay", t) end`); err != nil {
		t.Fatalf("DoString() failed: %v", err)
	}

	start := time.Unix(100, 0)
	r.Tick(start)
	if f.delay.Get() != 0 {
		t.Errorf("expected 0 at first tick, got %v", f.delay.Get())
	}
	r.Tick(start.Add(500 * time.Millisecond))
	if f.delay.Get() != 0.5 {
		t.Errorf("expected 0.5, got %v", f.delay.Get())
	}
}

func TestRunner_FailingTickRemoved(t *testing.T) {
	f := newFixture(t)
	r := NewRunner(f.group, nil)
	defer r.Close()

	if err := r.DoString(`calls = 0
function on_tick() calls = calls + 1; error("bad") end`); err != nil {
		t.Fatalf("DoString() failed: %v", err)
	}
	r.Tick(time.Now())
	r.Tick(time.Now())

	if err := r.DoString(`assert(calls == 1 and on_tick == nil)`); err != nil {
		t.Errorf("expected on_tick removed after failure: %v", err)
	}
}

func TestRunner_LoadFileAndReload(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "auto.lua")
	if err := os.WriteFile(path, []byte(`set("chorus.delay", 0.1)`), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(f.group, f.buses.Logic)
	defer r.Close()

	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if f.delay.Get() != 0.1 || r.Path() != path {
		t.Errorf("expected 0.1 from %s, got %v from %s", path, f.delay.Get(), r.Path())
	}

	if err := os.WriteFile(path, []byte(`set("chorus.delay", 0.2)`), 0o644); err != nil {
		t.Fatal(err)
	}
	itc.Send(f.buses.Logic, ReloadAction.Data(path))
	if f.delay.Get() != 0.1 {
		t.Error("reload should wait for the logic drain")
	}
	f.buses.Logic.Drain()
	if f.delay.Get() != 0.2 {
		t.Errorf("expected 0.2 after reload, got %v", f.delay.Get())
	}
}

func TestRunner_LoadFileMissing(t *testing.T) {
	f := newFixture(t)
	r := NewRunner(f.group, nil)
	defer r.Close()

	err := r.LoadFile(filepath.Join(t.TempDir(), "missing.lua"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestRunner_Closed(t *testing.T) {
	f := newFixture(t)
	r := NewRunner(f.group, f.buses.Logic)
	r.Close()
	r.Close()

	if err := r.DoString(`x = 1`); !errors.Is(err, ErrRunnerClosed) {
		t.Errorf("expected ErrRunnerClosed, got %v", err)
	}
	if f.buses.Logic.Receivers(ReloadAction.Kind()) != 0 {
		t.Error("expected runner to leave the logic bus")
	}
}
