package itc

import (
	"runtime/debug"
	"sync/atomic"
)

// DefaultQueueCapacity is the queue capacity used when none is configured.
const DefaultQueueCapacity = 1024

// Dispatch is a deferred invocation waiting in a Queue.
type Dispatch interface {
	// Kind returns the action kind carried by the dispatch.
	Kind() Kind

	// Run invokes the receivers of the dispatch.
	Run()
}

// DispatchFunc adapts a plain function to a Dispatch.
type DispatchFunc func()

// Kind implements Dispatch.
func (f DispatchFunc) Kind() Kind {
	return Kind{Tag: "func"}
}

// Run implements Dispatch.
func (f DispatchFunc) Run() {
	f()
}

// Pusher is the producer side of a Queue. Code that may enqueue but must never
// drain is handed a Pusher instead of the Queue.
type Pusher interface {
	Push(d Dispatch) bool
}

// slot is one cell of the ring. seq encodes whether the cell is free for the
// producer at position p (seq == p) or holds the dispatch for position p
// (seq == p+1).
type slot struct {
	seq atomic.Uint64
	d   Dispatch
}

// Queue is a bounded, lock-free, multi-producer single-consumer queue of
// dispatches. Push never blocks; when the queue is full the newest dispatch is
// dropped and counted.
type Queue struct {
	limit uint64 // capacity; the ring itself is the next power of two
	mask  uint64
	slots []slot

	head atomic.Uint64 // next position to claim (producers)
	tail atomic.Uint64 // next position to drain (consumer)

	draining atomic.Bool

	// Handlers
	panicHandler func(d Dispatch, recovered any, stack []byte)

	// Stats
	pushed   atomic.Uint64
	drained  atomic.Uint64
	dropped  atomic.Uint64
	panicked atomic.Uint64
}

// NewQueue creates a queue holding at most capacity dispatches between drains.
// A capacity of zero or less selects DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	n := 2
	for n < capacity {
		n <<= 1
	}

	q := &Queue{
		limit: uint64(capacity),
		mask:  uint64(n - 1),
		slots: make([]slot, n),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// Push appends a dispatch. It is safe to call from any number of goroutines and
// never blocks. It returns false if the queue was full and d was dropped.
func (q *Queue) Push(d Dispatch) bool {
	pos := q.head.Load()
	for {
		// A stale pos can trail a tail the consumer has just advanced; the
		// signed difference is then negative and the CAS below retries.
		if int64(pos-q.tail.Load()) >= int64(q.limit) {
			q.dropped.Add(1)
			return false
		}

		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()

		switch diff := int64(seq - pos); {
		case diff == 0:
			if q.head.CompareAndSwap(pos, pos+1) {
				s.d = d
				s.seq.Store(pos + 1)
				q.pushed.Add(1)
				return true
			}
			pos = q.head.Load()
		case diff < 0:
			// The consumer has not freed this cell yet: full.
			q.dropped.Add(1)
			return false
		default:
			// Another producer claimed pos; retry with the new head.
			pos = q.head.Load()
		}
	}
}

// Drain runs every dispatch queued before the call, in enqueue order, and
// returns the number run. Dispatches pushed while draining (including by the
// handlers themselves) are left for the next drain.
//
// Drain must only be called by the single consumer of the queue; overlapping
// drains panic with a *ContractViolation.
func (q *Queue) Drain() int {
	if !q.draining.CompareAndSwap(false, true) {
		violate(&ContractViolation{Op: "drain", Reason: "queue drained concurrently by two consumers"})
	}
	defer q.draining.Store(false)

	end := q.head.Load()
	n := 0
	for pos := q.tail.Load(); pos != end; pos++ {
		s := &q.slots[pos&q.mask]
		if s.seq.Load() != pos+1 {
			// Claimed but not yet published; keep FIFO and pick it up next drain.
			break
		}
		d := s.d
		s.d = nil
		s.seq.Store(pos + q.mask + 1)
		q.tail.Store(pos + 1)

		q.execute(d)
		n++
	}
	q.drained.Add(uint64(n))
	return n
}

// execute runs one dispatch, recovering from a panicking handler so that the
// rest of the cycle still drains.
func (q *Queue) execute(d Dispatch) {
	defer func() {
		if r := recover(); r != nil {
			q.panicked.Add(1)
			if q.panicHandler != nil {
				stack := debug.Stack()
				func() {
					defer func() { _ = recover() }()
					q.panicHandler(d, r, stack)
				}()
			}
		}
	}()
	d.Run()
}

// Len returns the number of dispatches currently queued.
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if head < tail {
		return 0
	}
	return int(head - tail)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return int(q.limit)
}

// Stats returns queue statistics.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Capacity: q.Cap(),
		Depth:    q.Len(),
		Pushed:   q.pushed.Load(),
		Drained:  q.drained.Load(),
		Dropped:  q.dropped.Load(),
		Panicked: q.panicked.Load(),
	}
}

// QueueStats contains statistics for a queue.
type QueueStats struct {
	// Capacity is the maximum number of dispatches held between drains.
	Capacity int

	// Depth is the number of dispatches waiting to be drained.
	Depth int

	// Pushed is the total number of dispatches accepted.
	Pushed uint64

	// Drained is the total number of dispatches run.
	Drained uint64

	// Dropped is the number of dispatches dropped because the queue was full.
	Dropped uint64

	// Panicked is the number of dispatches whose handlers panicked.
	Panicked uint64
}
