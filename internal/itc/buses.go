package itc

// Buses is the explicitly owned set of the three domain buses. It is created at
// application start, passed to each domain driver, and closed at shutdown.
type Buses struct {
	Audio    *Bus
	Graphics *Bus
	Logic    *Bus
}

// NewBuses creates the audio, graphics and logic buses.
func NewBuses(opts ...Option) *Buses {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Buses{
		Audio:    newBus(Audio, config),
		Graphics: newBus(Graphics, config),
		Logic:    newBus(Logic, config),
	}
}

// Get returns the bus with the given id, or nil for an unknown id.
func (bs *Buses) Get(id BusID) *Bus {
	switch id {
	case Audio:
		return bs.Audio
	case Graphics:
		return bs.Graphics
	case Logic:
		return bs.Logic
	default:
		return nil
	}
}

// Select returns the buses with the given ids, in order.
func (bs *Buses) Select(ids ...BusID) ([]*Bus, error) {
	out := make([]*Bus, 0, len(ids))
	for _, id := range ids {
		b := bs.Get(id)
		if b == nil {
			return nil, ErrUnknownBus
		}
		out = append(out, b)
	}
	return out, nil
}

// All returns the three buses in id order.
func (bs *Buses) All() []*Bus {
	return []*Bus{bs.Audio, bs.Graphics, bs.Logic}
}

// Stats returns the statistics of every bus in id order.
func (bs *Buses) Stats() []Stats {
	all := bs.All()
	out := make([]Stats, len(all))
	for i, b := range all {
		out[i] = b.Stats()
	}
	return out
}

// Close closes every bus.
func (bs *Buses) Close() {
	for _, b := range bs.All() {
		b.Close()
	}
}
