package itc

// Option configures a Bus or a set of Buses.
type Option func(*busConfig)

// PanicHandler is called, on the draining goroutine, when a handler panics.
type PanicHandler func(err *PanicError)

// busConfig contains configuration for the action buses.
type busConfig struct {
	// capacity is the queue capacity per bus.
	capacity map[BusID]int

	// defaultCapacity applies to buses without an explicit capacity.
	defaultCapacity int

	// panicHandler is called when a handler panics during a drain.
	panicHandler PanicHandler
}

// defaultBusConfig returns the default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		capacity:        make(map[BusID]int),
		defaultCapacity: DefaultQueueCapacity,
	}
}

func (c busConfig) capacityFor(id BusID) int {
	if n, ok := c.capacity[id]; ok {
		return n
	}
	return c.defaultCapacity
}

// WithQueueCapacity sets the queue capacity of every bus.
func WithQueueCapacity(size int) Option {
	return func(c *busConfig) {
		if size > 0 {
			c.defaultCapacity = size
		}
	}
}

// WithBusCapacity sets the queue capacity of a single bus.
func WithBusCapacity(id BusID, size int) Option {
	return func(c *busConfig) {
		if size > 0 {
			c.capacity[id] = size
		}
	}
}

// WithPanicHandler sets the handler called when a receiver panics during a drain.
func WithPanicHandler(h PanicHandler) Option {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}
