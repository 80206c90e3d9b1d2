// Package domain runs the execution domains of the instrument. Each domain is
// a goroutine that owns one action bus and, once per cycle, drains it and then
// does its own work: render an audio block, draw a frame, run background logic.
//
//	audio := domain.NewDriver(buses.Audio, cfg.Audio.Period(),
//	    domain.WithCycle(engine.Process))
//	host := domain.NewHost(logger, audio, graphics, logic)
//	err := host.Run(ctx)
//
// Drivers never log from the cycle itself; overflow and handler panics are
// counted by the bus and reported by a Reporter running in the logic domain.
package domain
