package domain

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/tonewire/internal/logging"
)

// Host runs a set of drivers, one goroutine each, and stops them together.
type Host struct {
	drivers []*Driver
	logger  *logging.Logger
}

// NewHost creates a host for drivers.
func NewHost(logger *logging.Logger, drivers ...*Driver) *Host {
	return &Host{
		drivers: drivers,
		logger:  logger.WithComponent("host"),
	}
}

// Drivers returns the hosted drivers.
func (h *Host) Drivers() []*Driver {
	return h.drivers
}

// Run starts every driver and blocks until ctx is done or a driver fails.
// When one driver returns an error the others are cancelled.
func (h *Host) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, d := range h.drivers {
		g.Go(func() error {
			return d.Run(ctx)
		})
	}
	h.logger.Info("running %d domains", len(h.drivers))

	err := g.Wait()
	for _, d := range h.drivers {
		snap := d.Metrics().Snapshot()
		h.logger.WithField("bus", d.Bus().Name()).Info(
			"%d cycles, avg %v, max %v, %d overruns",
			snap.Cycles, snap.AvgCycle, snap.MaxCycle, snap.Overruns)
	}
	return err
}
