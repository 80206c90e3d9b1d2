// Package script runs Lua automation against the instrument's properties.
// Scripts run in the logic domain: they may read and set any property, and
// the resulting changes travel on the buses like edits from the keyboard.
//
// A script sees these globals:
//
//	set(tag, value)  -- set a property, returns true if it changed
//	get(tag)         -- current value of a property
//	step(tag, n)     -- move a property by n steps
//	names()          -- list of property tags
//	log(msg)         -- write to the application log
//
// If the script defines on_tick(seconds), it is called every logic cycle
// with the time since the runner started.
package script

import (
	"context"
	"fmt"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/logging"
	"github.com/dshills/tonewire/internal/props"
)

// DefaultCallTimeout bounds one script call so a runaway script cannot stall
// the logic domain indefinitely.
const DefaultCallTimeout = 50 * time.Millisecond

// ReloadAction asks the runner to load the script at the given path.
var ReloadAction = itc.NewAction[string]("script.reload")

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used by log() and for script errors.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithCallTimeout sets the time limit for one script call.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// Runner owns a Lua state bound to a property group. gopher-lua states are
// not goroutine-safe; every method must be called from the logic domain.
type Runner struct {
	L       *lua.LState
	group   *props.Group
	logger  *logging.Logger
	timeout time.Duration
	recv    *itc.Receiver
	path    string
	start   time.Time
	closed  bool
}

// NewRunner creates a runner for group. If logic is not nil the runner joins
// it to handle ReloadAction.
func NewRunner(group *props.Group, logic *itc.Bus, opts ...Option) *Runner {
	r := &Runner{
		group:   group,
		logger:  logging.Null(),
		timeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("script")

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	r.installAPI()

	if logic != nil {
		r.recv = itc.Join(logic, itc.On(ReloadAction, r.reload))
	}
	return r
}

// openSafeLibraries opens the Lua libraries that cannot reach the host.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (r *Runner) installAPI() {
	r.L.SetGlobal("set", r.L.NewFunction(r.luaSet))
	r.L.SetGlobal("get", r.L.NewFunction(r.luaGet))
	r.L.SetGlobal("step", r.L.NewFunction(r.luaStep))
	r.L.SetGlobal("names", r.L.NewFunction(r.luaNames))
	r.L.SetGlobal("log", r.L.NewFunction(r.luaLog))
}

func (r *Runner) lookup(L *lua.LState) props.Field {
	tag := L.CheckString(1)
	f, ok := r.group.Lookup(tag)
	if !ok {
		L.RaiseError("%v: %s", props.ErrUnknownProperty, tag)
	}
	return f
}

func (r *Runner) luaSet(L *lua.LState) int {
	f := r.lookup(L)
	v := L.CheckNumber(2)
	L.Push(lua.LBool(f.SetFloat(float64(v))))
	return 1
}

func (r *Runner) luaGet(L *lua.LState) int {
	f := r.lookup(L)
	L.Push(lua.LNumber(f.Float()))
	return 1
}

func (r *Runner) luaStep(L *lua.LState) int {
	f := r.lookup(L)
	n := L.OptInt(2, 1)
	L.Push(lua.LBool(f.Step(n)))
	return 1
}

func (r *Runner) luaNames(L *lua.LState) int {
	t := L.NewTable()
	for _, name := range r.group.Names() {
		t.Append(lua.LString(name))
	}
	L.Push(t)
	return 1
}

func (r *Runner) luaLog(L *lua.LState) int {
	r.logger.Info("%s", L.CheckString(1))
	return 0
}

// Path returns the most recently loaded script file.
func (r *Runner) Path() string {
	return r.path
}

// DoString runs code.
func (r *Runner) DoString(code string) error {
	if r.closed {
		return ErrRunnerClosed
	}
	if err := r.protect(func() error { return r.L.DoString(code) }); err != nil {
		return &ScriptError{Err: err}
	}
	return nil
}

// LoadFile runs the script at path. Globals from a previous load, including
// on_tick, are kept unless the new script redefines them.
func (r *Runner) LoadFile(path string) error {
	if r.closed {
		return ErrRunnerClosed
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return &ScriptError{Path: path, Err: err}
	}
	if err := r.protect(func() error { return r.L.DoString(string(code)) }); err != nil {
		return &ScriptError{Path: path, Err: err}
	}
	r.path = path
	r.start = time.Time{}
	r.logger.Info("loaded %s", path)
	return nil
}

func (r *Runner) reload(path string) {
	if err := r.LoadFile(path); err != nil {
		r.logger.Error("reload failed: %v", err)
	}
}

// Tick calls on_tick with the seconds elapsed since the first tick after the
// last load. A failing on_tick is logged and removed so the error is not
// repeated every cycle. Pass Tick to domain.WithCycle on the logic driver.
func (r *Runner) Tick(now time.Time) {
	if r.closed {
		return
	}
	fn := r.L.GetGlobal("on_tick")
	if fn.Type() != lua.LTFunction {
		return
	}
	if r.start.IsZero() {
		r.start = now
	}
	elapsed := now.Sub(r.start).Seconds()

	err := r.protect(func() error {
		return r.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(elapsed))
	})
	if err != nil {
		r.logger.Error("%v", &ScriptError{Path: r.path, Func: "on_tick", Err: err})
		r.L.SetGlobal("on_tick", lua.LNil)
	}
}

// protect runs fn under the call timeout and converts panics to errors.
func (r *Runner) protect(fn func() error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return fn()
}

// Close leaves the logic bus and releases the Lua state.
func (r *Runner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if r.recv != nil {
		r.recv.Close()
	}
	r.L.Close()
}
