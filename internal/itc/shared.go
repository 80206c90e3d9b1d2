package itc

import "sync/atomic"

// Shared is a single-writer, multi-reader cell for values produced at audio
// rate and sampled by other domains, such as a modulation phase shown on screen.
//
// Store replaces the whole value; Load returns the last completed Store and
// never observes a partially written value. Only one goroutine may call Store.
// The zero value is ready to use and loads the zero T.
type Shared[T any] struct {
	p atomic.Pointer[T]
}

// NewShared creates a cell holding initial.
func NewShared[T any](initial T) *Shared[T] {
	s := &Shared[T]{}
	s.Store(initial)
	return s
}

// Store publishes v.
func (s *Shared[T]) Store(v T) {
	s.p.Store(&v)
}

// Load returns the most recently stored value.
func (s *Shared[T]) Load() T {
	if p := s.p.Load(); p != nil {
		return *p
	}
	var zero T
	return zero
}
