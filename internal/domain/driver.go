package domain

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/logging"
)

// CycleFunc is the work a domain does each cycle after draining its bus.
type CycleFunc func(now time.Time)

// Option configures a Driver.
type Option func(*Driver)

// WithCycle appends fn to the work done after each drain. Functions run in
// the order they were added.
func WithCycle(fn CycleFunc) Option {
	return func(d *Driver) {
		d.cycles = append(d.cycles, fn)
	}
}

// WithLogger sets the logger used for start and stop messages.
func WithLogger(l *logging.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// Driver is the consumer of one bus. It is the only goroutine that drains the
// bus, and the cycle functions it runs are the only code executing in that
// domain.
type Driver struct {
	bus     *itc.Bus
	period  time.Duration
	cycles  []CycleFunc
	logger  *logging.Logger
	metrics *Metrics
	now     func() time.Time
	running atomic.Bool
}

// NewDriver creates a driver cycling every period on bus. A non-positive
// period is raised to one millisecond.
func NewDriver(bus *itc.Bus, period time.Duration, opts ...Option) *Driver {
	if period <= 0 {
		period = time.Millisecond
	}
	d := &Driver{
		bus:     bus,
		period:  period,
		logger:  logging.Null(),
		metrics: NewMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithComponent("domain").WithField("bus", bus.Name())
	return d
}

// Bus returns the bus the driver drains.
func (d *Driver) Bus() *itc.Bus {
	return d.bus
}

// Period returns the cycle period.
func (d *Driver) Period() time.Duration {
	return d.period
}

// Metrics returns the cycle metrics.
func (d *Driver) Metrics() *Metrics {
	return d.metrics
}

// IsRunning returns true while Run is executing.
func (d *Driver) IsRunning() bool {
	return d.running.Load()
}

// Step runs one cycle: drain the bus, then run every cycle function. It
// returns the number of dispatches drained. Step must only be called from the
// goroutine that owns the domain.
func (d *Driver) Step() int {
	start := d.now()
	n := d.bus.Drain()
	for _, fn := range d.cycles {
		fn(start)
	}
	d.metrics.RecordCycle(d.now().Sub(start), d.period, n)
	return n
}

// Run cycles until ctx is done. A final drain runs before returning so that
// dispatches sent during shutdown still reach the domain's receivers.
func (d *Driver) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer d.running.Store(false)

	d.logger.Debug("started, period %v", d.period)

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.bus.Drain()
			snap := d.metrics.Snapshot()
			d.logger.Debug("stopped after %d cycles, %d overruns", snap.Cycles, snap.Overruns)
			return nil
		case <-ticker.C:
			d.Step()
		}
	}
}
