// Package chorus is a chorus effect engine. Its parameters live in the logic
// domain as properties; the audio domain keeps a mirror that follows their
// changes and advances the modulation LFO once per block.
package chorus

import (
	"fmt"
	"math"
	"time"

	"github.com/dshills/tonewire/internal/itc"
	"github.com/dshills/tonewire/internal/props"
)

// Name is the sender name of the engine's properties.
const Name = "chorus"

// Engine owns the chorus parameters and the audio-side processor.
type Engine struct {
	sender *props.Sender

	Delay    *props.Property[float64]
	Rate     *props.Property[float64]
	Feedback *props.Property[float64]
	Depth    *props.Property[float64]

	phase *itc.Shared[float64]
	proc  *Processor
	recv  *itc.Receiver
}

// New declares the chorus properties on the audio and graphics buses and joins
// the audio processor to the audio bus. sampleRate and blockSize set the LFO
// increment per block.
func New(buses *itc.Buses, sampleRate, blockSize int) (*Engine, error) {
	if sampleRate <= 0 || blockSize <= 0 {
		return nil, fmt.Errorf("chorus: invalid block %d at %d Hz", blockSize, sampleRate)
	}
	sender, err := props.NewSender(Name, buses.Audio, buses.Graphics)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		sender: sender,
		phase:  itc.NewShared(0.0),
	}

	decl := []struct {
		dst  **props.Property[float64]
		name string
		def  float64
		lim  props.Limits[float64]
		step float64
	}{
		{&e.Delay, "delay", 0.8, props.Limits[float64]{Min: 0, Max: 1}, 0.01},
		{&e.Rate, "rate", 0, props.Limits[float64]{Min: 0, Max: 2}, 0.02},
		{&e.Feedback, "feedback", 0, props.Limits[float64]{Min: -0.99, Max: 0.99}, 0.02},
		{&e.Depth, "depth", 0.5, props.Limits[float64]{Min: 0, Max: 1}, 0.01},
	}
	for _, d := range decl {
		p, err := props.NewProperty(sender, d.name, d.def, d.lim, props.WithStep(d.step))
		if err != nil {
			return nil, err
		}
		*d.dst = p
	}

	e.proc = &Processor{
		blockSeconds: float64(blockSize) / float64(sampleRate),
		phase:        e.phase,
		delay:        e.Delay.Get(),
		rate:         e.Rate.Get(),
		feedback:     e.Feedback.Get(),
		depth:        e.Depth.Get(),
	}
	e.recv = itc.Join(buses.Audio,
		e.Delay.On(func(v float64) { e.proc.delay = v }),
		e.Rate.On(func(v float64) { e.proc.rate = v }),
		e.Feedback.On(func(v float64) { e.proc.feedback = v }),
		e.Depth.On(func(v float64) { e.proc.depth = v }),
	)
	return e, nil
}

// Group returns the engine's properties.
func (e *Engine) Group() *props.Group {
	return e.sender.Group()
}

// Phase returns the LFO phase cell. The audio domain writes it once per block;
// any domain may read it.
func (e *Engine) Phase() *itc.Shared[float64] {
	return e.phase
}

// Processor returns the audio-side state.
func (e *Engine) Processor() *Processor {
	return e.proc
}

// Close leaves the audio bus.
func (e *Engine) Close() {
	e.recv.Close()
}

// Processor is the audio-domain view of the engine. Its fields are only
// touched by handlers and Process, both of which run on the audio goroutine.
type Processor struct {
	blockSeconds float64
	phase        *itc.Shared[float64]
	lfo          float64

	delay    float64
	rate     float64
	feedback float64
	depth    float64
}

// Process advances the LFO by one block and publishes its phase. Sample
// processing is left to the host audio callback.
func (p *Processor) Process(time.Time) {
	p.lfo += p.rate * p.blockSeconds
	p.lfo -= math.Floor(p.lfo)
	p.phase.Store(p.lfo)
}

// ModulatedDelay returns the delay parameter modulated by the LFO, in [0, 1].
func (p *Processor) ModulatedDelay() float64 {
	d := p.delay * (1 + p.depth*math.Sin(2*math.Pi*p.lfo))
	return math.Max(0, math.Min(1, d))
}

// Params returns the mirrored parameters: delay, rate, feedback, depth.
func (p *Processor) Params() (delay, rate, feedback, depth float64) {
	return p.delay, p.rate, p.feedback, p.depth
}
