package domain

import (
	"time"

	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/logging"
)

// Reporter logs bus problems on behalf of domains that must not log. It reads
// the bus counters each time Report is called and warns about any growth in
// drops, rejected sends or handler panics. Report belongs in the cycle of a
// domain that may block, normally logic.
type Reporter struct {
	buses  []*itc.Bus
	logger *logging.Logger
	last   map[string]itc.Stats

	// One cell per bus keeps a single writer per cell: each bus's panic
	// handler runs on that bus's draining goroutine. The map is fixed at
	// construction.
	panics map[string]*itc.Shared[*itc.PanicError]
	seen   map[string]*itc.PanicError
}

// NewReporter creates a reporter for buses.
func NewReporter(logger *logging.Logger, buses ...*itc.Bus) *Reporter {
	r := &Reporter{
		buses:  buses,
		logger: logger.WithComponent("reporter"),
		last:   make(map[string]itc.Stats, len(buses)),
		panics: make(map[string]*itc.Shared[*itc.PanicError], len(buses)),
		seen:   make(map[string]*itc.PanicError, len(buses)),
	}
	for _, b := range buses {
		r.panics[b.Name()] = &itc.Shared[*itc.PanicError]{}
	}
	return r
}

// RecordPanic keeps err for the next Report. It is meant to be installed with
// itc.WithPanicHandler, so it runs on the goroutine draining err.Bus, and is
// safe for the audio domain. Panics from buses the reporter does not watch
// are only counted.
func (r *Reporter) RecordPanic(err *itc.PanicError) {
	if cell, ok := r.panics[err.Bus]; ok {
		cell.Store(err)
	}
}

// Report logs what changed since the previous call and returns the number of
// warnings written.
func (r *Reporter) Report() int {
	warnings := 0
	for _, b := range r.buses {
		cur := b.Stats()
		prev := r.last[cur.Bus]
		r.last[cur.Bus] = cur

		log := r.logger.WithField("bus", cur.Bus)
		if d := cur.Dropped - prev.Dropped; d > 0 {
			log.Warn("queue overflow: dropped %d dispatches (capacity %d)", d, cur.QueueCapacity)
			warnings++
		}
		if d := cur.Rejected - prev.Rejected; d > 0 {
			log.Warn("rejected %d sends to closed bus", d)
			warnings++
		}
		if d := cur.HandlerPanics - prev.HandlerPanics; d > 0 {
			log.Error("%d handler panics", d)
			warnings++
		}

		if p := r.panics[cur.Bus].Load(); p != nil && p != r.seen[cur.Bus] {
			r.seen[cur.Bus] = p
			log.Error("%v\n%s", p, p.Stack)
			warnings++
		}
	}
	return warnings
}

// Cycle runs Report; pass it to WithCycle.
func (r *Reporter) Cycle(time.Time) {
	r.Report()
}
