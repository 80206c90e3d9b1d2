package script

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/logging"
)

// Watcher sends ReloadAction whenever a script file is written. The
// directory is watched rather than the file, so editors that save by
// renaming a temporary file are still seen.
type Watcher struct {
	fsw    *fsnotify.Watcher
	path   string
	bus    *itc.Bus
	logger *logging.Logger
	done   chan struct{}
}

// Watch starts watching path and sends reloads to bus.
func Watch(path string, bus *itc.Bus, logger *logging.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		path:   abs,
		bus:    bus,
		logger: logger.WithComponent("script-watch"),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.logger.Debug("%s changed", w.path)
				itc.Send(w.bus, ReloadAction.Data(w.path))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error: %v", err)
		}
	}
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
