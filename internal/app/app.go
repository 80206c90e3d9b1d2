// Package app wires the instrument together: configuration, the three action
// buses and their domain drivers, the chorus engine, UI state, the terminal
// front-end and automation scripts. It owns the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tonewire/internal/config"
	"github.com/dshills/tonewire/internal/domain"
	"github.com/dshills/tonewire/internal/engines/chorus"
	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/logging"
	"github.com/dshills/tonewire/internal/props"
	"github.com/dshills/tonewire/internal/script"
	"github.com/dshills/tonewire/internal/terminal"
)

// Version is the application version.
const Version = "0.1.0"

// Application is the central coordinator for all components.
type Application struct {
	opts   Options
	cfg    *config.Config
	logger *logging.Logger

	buses    *itc.Buses
	reporter *domain.Reporter
	host     *domain.Host

	chorus   *chorus.Engine
	state    *State
	editable *props.Group
	controls *Controls

	term *terminal.Terminal
	view *terminal.View

	runner  *script.Runner
	watcher *script.Watcher

	logFile io.Closer

	running atomic.Bool
	ready   chan struct{}
	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	release sync.Once
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// Config is used instead of loading ConfigPath when set.
	Config *config.Config

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// ScriptPath overrides the configured automation script when set.
	ScriptPath string

	// PresetPath overrides the configured preset file when set.
	PresetPath string

	// LogOutput overrides the configured log destination when set.
	LogOutput io.Writer

	// Headless runs without a terminal front-end.
	Headless bool

	// Screen is used instead of the controlling terminal when set.
	Screen tcell.Screen
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts, ready: make(chan struct{})}
	if err := app.bootstrap(); err != nil {
		app.releaseResources()
		return nil, err
	}
	return app, nil
}

// Run starts every domain and blocks until ctx is done or Shutdown is called.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)
	defer app.releaseResources()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.mu.Lock()
	if app.stopped {
		app.mu.Unlock()
		return nil
	}
	app.cancel = cancel
	app.mu.Unlock()

	if app.term != nil {
		if err := app.term.Init(); err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		defer app.term.Shutdown()
		go app.term.ReadKeys(app.buses.Logic)
	}

	app.logger.Info("tonewire %s running", Version)
	close(app.ready)
	return app.host.Run(ctx)
}

// Shutdown stops a running application. It may be called from any goroutine,
// including a domain handler, and more than once.
func (app *Application) Shutdown() {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.stopped = true
	if app.cancel != nil {
		app.cancel()
	}
}

// Close releases the resources of an application that will not be run.
func (app *Application) Close() {
	app.Shutdown()
	if !app.running.Load() {
		app.releaseResources()
	}
}

// releaseResources tears components down in reverse bootstrap order. The
// domains have stopped, so nothing else touches domain-owned state.
func (app *Application) releaseResources() {
	app.release.Do(func() {
		if app.watcher != nil {
			if err := app.watcher.Close(); err != nil {
				app.logger.Warn("close watcher: %v", err)
			}
		}
		if app.runner != nil {
			app.runner.Close()
		}
		if app.controls != nil {
			app.controls.Close()
		}
		if app.view != nil {
			app.view.Close()
		}
		if app.chorus != nil {
			app.chorus.Close()
		}
		if app.buses != nil {
			app.buses.Close()
		}
		if app.logFile != nil {
			_ = app.logFile.Close()
		}
	})
}

// Ready is closed once Run has initialized the terminal and is starting the
// domains.
func (app *Application) Ready() <-chan struct{} {
	return app.ready
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Buses returns the action buses.
func (app *Application) Buses() *itc.Buses {
	return app.buses
}

// Chorus returns the chorus engine.
func (app *Application) Chorus() *chorus.Engine {
	return app.chorus
}

// State returns the UI state.
func (app *Application) State() *State {
	return app.state
}

// Editable returns every property the controls and scripts can edit.
func (app *Application) Editable() *props.Group {
	return app.editable
}

// Host returns the domain host.
func (app *Application) Host() *domain.Host {
	return app.host
}

// SavePreset writes the editable properties to the configured preset file.
// It reads properties, so it must run in the logic domain.
func (app *Application) SavePreset() error {
	path := app.cfg.Preset.Path
	if path == "" {
		return ErrNoPresetPath
	}
	data, err := props.Snapshot(app.editable)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write preset %s: %w", path, err)
	}
	app.logger.Info("saved preset %s", path)
	return nil
}

// loadPreset applies the configured preset file. A missing file is not an
// error; it is created by the first save.
func (app *Application) loadPreset() error {
	path := app.cfg.Preset.Path
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	n, err := props.Apply(app.editable, data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	app.logger.Info("applied preset %s (%d changes)", path, n)
	return nil
}
