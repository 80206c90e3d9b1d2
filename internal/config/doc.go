// Package config loads the runtime configuration of the instrument: queue
// capacities per bus, domain cadences, logging, and the automation script and
// preset paths.
//
// Configuration is layered: built-in defaults, then an optional TOML or YAML
// file (chosen by extension), then TONEWIRE_* environment variables. The
// result is validated before use.
//
//	cfg, err := config.Load("tonewire.toml")
//	if err != nil {
//	    return err
//	}
//	period := cfg.Audio.Period()
//
// Example file:
//
//	[audio]
//	sample_rate = 48000
//	block_size = 64
//	queue_capacity = 1024
//
//	[graphics]
//	frame_rate = 60
//
//	[script]
//	path = "automation.lua"
//	watch = true
package config
