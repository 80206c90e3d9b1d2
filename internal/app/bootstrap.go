package app

import (
	"os"

	"github.com/dshills/tonewire/internal/config"
	"github.com/dshills/tonewire/internal/domain"
	"github.com/dshills/tonewire/internal/engines/chorus"
	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/logging"
	"github.com/dshills/tonewire/internal/script"
	"github.com/dshills/tonewire/internal/terminal"
)

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	if app.opts.Config != nil {
		app.cfg = app.opts.Config
	} else {
		cfg, err := config.Load(app.opts.ConfigPath)
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
		app.cfg = cfg
	}
	if app.opts.LogLevel != "" {
		app.cfg.Log.Level = app.opts.LogLevel
	}
	if app.opts.ScriptPath != "" {
		app.cfg.Script.Path = app.opts.ScriptPath
	}
	if app.opts.PresetPath != "" {
		app.cfg.Preset.Path = app.opts.PresetPath
	}
	if err := app.cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	// 2. Logging
	if err := app.initLogger(); err != nil {
		return &InitError{Component: "logging", Err: err}
	}

	// 3. Buses; handler panics are reported from the logic domain
	var reporter *domain.Reporter
	app.buses = itc.NewBuses(
		itc.WithBusCapacity(itc.Audio, app.cfg.Audio.QueueCapacity),
		itc.WithBusCapacity(itc.Graphics, app.cfg.Graphics.QueueCapacity),
		itc.WithBusCapacity(itc.Logic, app.cfg.Logic.QueueCapacity),
		itc.WithPanicHandler(func(err *itc.PanicError) {
			reporter.RecordPanic(err)
		}),
	)
	reporter = domain.NewReporter(app.logger, app.buses.All()...)
	app.reporter = reporter

	// 4. Engine and UI state
	engine, err := chorus.New(app.buses, app.cfg.Audio.SampleRate, app.cfg.Audio.BlockSize)
	if err != nil {
		return &InitError{Component: "chorus", Err: err}
	}
	app.chorus = engine

	rows := engine.Group().Len() + 3
	if app.state, err = NewState(app.buses, rows); err != nil {
		return &InitError{Component: "ui state", Err: err}
	}
	app.editable = engine.Group().Merge(app.state.Group())

	if err := app.loadPreset(); err != nil {
		return &InitError{Component: "preset", Err: err}
	}

	// 5. Scripting
	if err := app.initScript(); err != nil {
		return &InitError{Component: "script", Err: err}
	}

	// 6. Controls
	save := app.SavePreset
	if app.cfg.Preset.Path == "" {
		save = nil
	}
	app.controls = NewControls(app.buses.Logic, app.state, app.editable, app.logger, app.Shutdown, save)

	// 7. Terminal front-end
	if !app.opts.Headless {
		if err := app.initTerminal(); err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
	}

	// 8. Domains
	app.initDomains()
	return nil
}

func (app *Application) initLogger() error {
	level, _ := logging.ParseLevel(app.cfg.Log.Level)
	cfg := logging.DefaultConfig()
	cfg.Level = level

	switch {
	case app.opts.LogOutput != nil:
		cfg.Output = app.opts.LogOutput
	case app.cfg.Log.File != "":
		f, err := os.OpenFile(app.cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		app.logFile = f
		cfg.Output = f
	case !app.opts.Headless:
		// The terminal owns stderr while it is running.
		app.logger = logging.Null()
		return nil
	}
	app.logger = logging.New(cfg)
	return nil
}

func (app *Application) initScript() error {
	path := app.cfg.Script.Path
	if path == "" {
		return nil
	}
	app.runner = script.NewRunner(app.editable, app.buses.Logic, script.WithLogger(app.logger))
	if err := app.runner.LoadFile(path); err != nil {
		return err
	}
	if app.cfg.Script.Watch {
		w, err := script.Watch(path, app.buses.Logic, app.logger)
		if err != nil {
			return err
		}
		app.watcher = w
	}
	return nil
}

func (app *Application) initTerminal() error {
	if app.opts.Screen != nil {
		app.term = terminal.NewWithScreen(app.opts.Screen)
	} else {
		term, err := terminal.New()
		if err != nil {
			return err
		}
		app.term = term
	}

	app.view = terminal.NewView(app.term.Screen(), app.buses.Graphics, app.editable, app.state.Selected,
		terminal.WithTitle("tonewire "+Version+"  [arrows] edit  [tab] screen  [m] key mode  [z/x] octave  [s] save  [q] quit"),
		terminal.WithLabels("ui.screen", ScreenLabels...),
		terminal.WithLabels("ui.key_mode", KeyModeLabels...),
		terminal.WithMeter("chorus lfo", app.chorus.Phase()),
	)
	return nil
}

func (app *Application) initDomains() {
	audio := domain.NewDriver(app.buses.Audio, app.cfg.Audio.Period(),
		domain.WithLogger(app.logger),
		domain.WithCycle(app.chorus.Processor().Process),
	)

	graphicsOpts := []domain.Option{domain.WithLogger(app.logger)}
	if app.view != nil {
		graphicsOpts = append(graphicsOpts, domain.WithCycle(app.view.Render))
	}
	graphics := domain.NewDriver(app.buses.Graphics, app.cfg.Graphics.Period(), graphicsOpts...)

	logicOpts := []domain.Option{domain.WithLogger(app.logger)}
	if app.runner != nil {
		logicOpts = append(logicOpts, domain.WithCycle(app.runner.Tick))
	}
	logicOpts = append(logicOpts, domain.WithCycle(app.reporter.Cycle))
	logic := domain.NewDriver(app.buses.Logic, app.cfg.Logic.Period(), logicOpts...)

	app.host = domain.NewHost(app.logger, audio, graphics, logic)
}
