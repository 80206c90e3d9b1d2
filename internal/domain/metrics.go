package domain

import (
	"sync/atomic"
	"time"
)

// Metrics tracks cycle timing for one domain. All methods are safe for
// concurrent use; the domain records and any goroutine may snapshot.
type Metrics struct {
	cycles    atomic.Uint64
	drained   atomic.Uint64
	overruns  atomic.Uint64
	totalNs   atomic.Int64
	minNs     atomic.Int64
	maxNs     atomic.Int64
	lastNs    atomic.Int64
	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
	}
	// Initialize min to max int64 so first cycle will be smaller
	m.minNs.Store(1<<63 - 1)
	return m
}

// RecordCycle records one cycle that drained n dispatches in duration.
// A cycle longer than its period is counted as an overrun.
func (m *Metrics) RecordCycle(duration, period time.Duration, n int) {
	ns := duration.Nanoseconds()

	m.cycles.Add(1)
	m.drained.Add(uint64(n))
	m.totalNs.Add(ns)
	m.lastNs.Store(ns)
	if period > 0 && duration > period {
		m.overruns.Add(1)
	}

	for {
		old := m.minNs.Load()
		if ns >= old || m.minNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	cycles := m.cycles.Load()

	var avg int64
	if cycles > 0 {
		avg = m.totalNs.Load() / int64(cycles)
	}
	minNs := m.minNs.Load()
	if minNs == 1<<63-1 {
		minNs = 0
	}

	return MetricsSnapshot{
		Uptime:   time.Since(m.startTime),
		Cycles:   cycles,
		Drained:  m.drained.Load(),
		Overruns: m.overruns.Load(),
		AvgCycle: time.Duration(avg),
		MinCycle: time.Duration(minNs),
		MaxCycle: time.Duration(m.maxNs.Load()),
		Last:     time.Duration(m.lastNs.Load()),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime   time.Duration
	Cycles   uint64
	Drained  uint64
	Overruns uint64
	AvgCycle time.Duration
	MinCycle time.Duration
	MaxCycle time.Duration
	Last     time.Duration
}
