// Package itc provides the inter-thread action bus used to pass state changes
// between the audio, graphics and logic domains of the instrument.
//
// # Architecture
//
//	   producer (any goroutine)                      owning domain
//	┌──────────────────────────┐              ┌──────────────────────────┐
//	│ Send(bus, action.Data()) │──► Queue ──► │ bus.Drain() once a cycle │
//	└──────────────────────────┘  (bounded,   │   registry[kind].callAll │
//	                               lock-free) └──────────────────────────┘
//
// Each Bus owns one bounded multi-producer/single-consumer Queue and one
// receiver registry per action kind. Send never blocks: when the queue is full
// the newest dispatch is dropped and counted. Drain runs every dispatch that was
// queued when it started, in enqueue order.
//
// # Action Kinds
//
// An action kind is declared once and shared by senders and receivers:
//
//	var SetGain = itc.NewAction[float64]("mixer.gain")
//
//	itc.Send(buses.Audio, SetGain.Data(0.5))
//
// Two kinds are equal iff their tag and argument type match, so the compiler
// rejects a float64 handler for an int action and a payload can never be routed
// to the wrong handler type.
//
// # Receivers
//
// Receivers join a bus for a set of kinds and leave it with Close:
//
//	r := itc.Join(buses.Audio,
//	    itc.On(SetGain, func(g float64) { gain = g }),
//	)
//	defer r.Close()
//
// Registration happens before Join returns and Close removes the receiver from
// every registry it joined. Joining a kind twice or closing twice panics with a
// *ContractViolation.
//
// # Thread Safety
//
// Send may be called from any goroutine. Drain must only be called by the
// domain that owns the bus. Join and Close are safe at any time, including from
// inside a handler; a receiver that joins during a drain is seen from the next
// dispatch on, and one that leaves is not called again.
//
// Shared holds a single value written by one domain and sampled by others, for
// audio-rate values that do not go through the bus.
package itc
