package itc

import (
	"strings"
	"sync"
	"sync/atomic"
)

// BusID names one of the three scheduling domains.
type BusID int

const (
	// Audio is drained by the real-time audio callback.
	Audio BusID = iota

	// Graphics is drained once per rendered frame.
	Graphics

	// Logic is drained by the background control loop.
	Logic
)

// String returns the bus name.
func (id BusID) String() string {
	switch id {
	case Audio:
		return "audio"
	case Graphics:
		return "graphics"
	case Logic:
		return "logic"
	default:
		return "unknown"
	}
}

// ParseBusID parses a bus name.
func ParseBusID(s string) (BusID, error) {
	switch strings.ToLower(s) {
	case "audio":
		return Audio, nil
	case "graphics", "screen":
		return Graphics, nil
	case "logic":
		return Logic, nil
	default:
		return 0, ErrUnknownBus
	}
}

// Bus is a named channel combining one dispatch queue with the receiver
// registries active on it.
type Bus struct {
	id    BusID
	queue *Queue

	// registries is replaced whole on every new kind, so Send looks kinds up
	// without locking. mu serializes the writers.
	mu         sync.Mutex
	registries atomic.Pointer[map[Kind]registrar]

	closed atomic.Bool

	// Stats
	sent      atomic.Uint64
	rejected  atomic.Uint64
	delivered atomic.Uint64
}

// NewBus creates a standalone bus. Applications normally use NewBuses.
func NewBus(id BusID, opts ...Option) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return newBus(id, config)
}

func newBus(id BusID, config busConfig) *Bus {
	b := &Bus{
		id:    id,
		queue: NewQueue(config.capacityFor(id)),
	}
	regs := make(map[Kind]registrar)
	b.registries.Store(&regs)

	if h := config.panicHandler; h != nil {
		name := id.String()
		b.queue.panicHandler = func(d Dispatch, recovered any, stack []byte) {
			h(&PanicError{Bus: name, Kind: d.Kind(), Value: recovered, Stack: stack})
		}
	}
	return b
}

// ID returns the bus id.
func (b *Bus) ID() BusID {
	return b.id
}

// Name returns the bus name.
func (b *Bus) Name() string {
	return b.id.String()
}

// Pusher returns the producer-only view of the bus queue.
func (b *Bus) Pusher() Pusher {
	return b.queue
}

// Drain runs every dispatch pending on the bus, in send order, and returns the
// number run. It must be called by the owning domain only, once per cycle.
func (b *Bus) Drain() int {
	return b.queue.Drain()
}

// Pending returns the number of dispatches waiting for the next drain.
func (b *Bus) Pending() int {
	return b.queue.Len()
}

// Receivers returns the number of receivers registered for kind.
func (b *Bus) Receivers(kind Kind) int {
	reg, ok := (*b.registries.Load())[kind]
	if !ok {
		return 0
	}
	return reg.count()
}

// Close stops the bus from accepting new dispatches. Pending dispatches can
// still be drained. Sends after Close are dropped and counted as rejected.
func (b *Bus) Close() {
	b.closed.Store(true)
}

// IsClosed returns true if the bus has been closed.
func (b *Bus) IsClosed() bool {
	return b.closed.Load()
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	q := b.queue.Stats()

	kinds := len(*b.registries.Load())

	return Stats{
		Bus:             b.id.String(),
		Sent:            b.sent.Load(),
		Dropped:         q.Dropped,
		Rejected:        b.rejected.Load(),
		Drained:         q.Drained,
		HandlersInvoked: b.delivered.Load(),
		HandlerPanics:   q.Panicked,
		QueueDepth:      q.Depth,
		QueueCapacity:   q.Capacity,
		Kinds:           kinds,
	}
}

// Stats contains action bus statistics.
type Stats struct {
	// Bus is the bus name.
	Bus string

	// Sent is the number of dispatches accepted by the queue.
	Sent uint64

	// Dropped is the number of dispatches dropped on queue overflow.
	Dropped uint64

	// Rejected is the number of sends made after the bus was closed.
	Rejected uint64

	// Drained is the number of dispatches executed.
	Drained uint64

	// HandlersInvoked is the total number of handler calls.
	HandlersInvoked uint64

	// HandlerPanics is the number of dispatches whose handlers panicked.
	HandlerPanics uint64

	// QueueDepth is the number of dispatches waiting for the next drain.
	QueueDepth int

	// QueueCapacity is the fixed queue capacity.
	QueueCapacity int

	// Kinds is the number of action kinds with a registry on the bus.
	Kinds int
}

// registryFor returns the registry for action on b, creating it on first use.
// Finding an existing registry takes no lock; only the first use of a kind
// copies the map under b.mu.
//
// This is the single place where a type-erased registry is converted back to
// its typed form; the Kind key includes the argument type, so the assertion
// cannot fail.
func registryFor[T any](b *Bus, a *Action[T]) *registry[T] {
	if reg, ok := (*b.registries.Load())[a.kind]; ok {
		return reg.(*registry[T])
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	cur := *b.registries.Load()
	if reg, ok := cur[a.kind]; ok {
		return reg.(*registry[T])
	}
	r := newRegistry[T](b.id.String(), a.kind, &b.delivered)
	next := make(map[Kind]registrar, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[a.kind] = r
	b.registries.Store(&next)
	return r
}

// Prepare creates the registry for action on b ahead of time, so that the
// first send of that kind does not take the bus lock. Audio-domain producers
// should prepare their actions during setup.
func Prepare[T any](b *Bus, a *Action[T]) {
	registryFor(b, a)
}

// pending is a queued dispatch owning its action data. Pendings are recycled
// through their registry's pool once run.
type pending[T any] struct {
	reg  *registry[T]
	args T
}

func (p *pending[T]) Kind() Kind {
	return p.reg.kind
}

func (p *pending[T]) Run() {
	defer p.release()
	p.reg.callAll(p.args)
}

func (p *pending[T]) release() {
	reg := p.reg
	var zero T
	p.args = zero
	reg.pending.Put(p)
}

// Send queues data for delivery on b and returns immediately. The receivers are
// looked up when the bus is drained, not now: receivers that join before the
// drain are called and receivers that leave before it are not.
//
// Send never blocks and never fails from the sender's point of view. It returns
// false if the dispatch was dropped because the queue was full or the bus was
// closed; callers are free to ignore the result.
func Send[T any](b *Bus, data ActionData[T]) bool {
	if data.action == nil {
		violate(&ContractViolation{Op: "send", Bus: b.Name(), Reason: "action data was not built with Action.Data"})
	}
	if b.closed.Load() {
		b.rejected.Add(1)
		return false
	}

	reg := registryFor(b, data.action)
	p := reg.pending.Get().(*pending[T])
	p.reg, p.args = reg, data.args
	if !b.queue.Push(p) {
		p.release()
		return false
	}
	b.sent.Add(1)
	return true
}

// SendTo sends one logical action to several buses, each with its own
// independent enqueue. It returns the number of buses that accepted it.
func SendTo[T any](buses []*Bus, a *Action[T], args T) int {
	accepted := 0
	data := a.Data(args)
	for _, b := range buses {
		if Send(b, data) {
			accepted++
		}
	}
	return accepted
}
