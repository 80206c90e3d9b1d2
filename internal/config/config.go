package config

import (
	"errors"
	"time"

	"github.com/dshills/tonewire/internal/logging"
)

// Config is the complete runtime configuration.
type Config struct {
	Log      LogConfig      `toml:"log" yaml:"log"`
	Audio    AudioConfig    `toml:"audio" yaml:"audio"`
	Graphics GraphicsConfig `toml:"graphics" yaml:"graphics"`
	Logic    LogicConfig    `toml:"logic" yaml:"logic"`
	Script   ScriptConfig   `toml:"script" yaml:"script"`
	Preset   PresetConfig   `toml:"preset" yaml:"preset"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level" env:"TONEWIRE_LOG_LEVEL"`
	// File is an optional log file; empty logs to stderr.
	File string `toml:"file" yaml:"file" env:"TONEWIRE_LOG_FILE"`
}

// AudioConfig configures the audio domain.
type AudioConfig struct {
	SampleRate    int `toml:"sample_rate" yaml:"sample_rate" env:"TONEWIRE_AUDIO_SAMPLE_RATE"`
	BlockSize     int `toml:"block_size" yaml:"block_size" env:"TONEWIRE_AUDIO_BLOCK_SIZE"`
	QueueCapacity int `toml:"queue_capacity" yaml:"queue_capacity" env:"TONEWIRE_AUDIO_QUEUE_CAPACITY"`
}

// Period returns the duration of one audio block.
func (c AudioConfig) Period() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.BlockSize) * time.Second / time.Duration(c.SampleRate)
}

// GraphicsConfig configures the graphics domain.
type GraphicsConfig struct {
	FrameRate     int `toml:"frame_rate" yaml:"frame_rate" env:"TONEWIRE_GRAPHICS_FRAME_RATE"`
	QueueCapacity int `toml:"queue_capacity" yaml:"queue_capacity" env:"TONEWIRE_GRAPHICS_QUEUE_CAPACITY"`
}

// Period returns the duration of one frame.
func (c GraphicsConfig) Period() time.Duration {
	if c.FrameRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FrameRate)
}

// LogicConfig configures the background logic domain.
type LogicConfig struct {
	RateHz        int `toml:"rate_hz" yaml:"rate_hz" env:"TONEWIRE_LOGIC_RATE_HZ"`
	QueueCapacity int `toml:"queue_capacity" yaml:"queue_capacity" env:"TONEWIRE_LOGIC_QUEUE_CAPACITY"`
}

// Period returns the duration of one logic cycle.
func (c LogicConfig) Period() time.Duration {
	if c.RateHz <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.RateHz)
}

// ScriptConfig configures the Lua automation script.
type ScriptConfig struct {
	// Path is the script file; empty disables scripting.
	Path string `toml:"path" yaml:"path" env:"TONEWIRE_SCRIPT"`
	// Watch reloads the script when the file changes.
	Watch bool `toml:"watch" yaml:"watch" env:"TONEWIRE_SCRIPT_WATCH"`
}

// PresetConfig configures the property preset file.
type PresetConfig struct {
	// Path is a JSON preset applied at startup; empty disables presets.
	Path string `toml:"path" yaml:"path" env:"TONEWIRE_PRESET"`
}

// Default returns the built-in configuration: 64-sample blocks at 48 kHz,
// 60 frames per second, and a 50 Hz logic loop.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Audio: AudioConfig{
			SampleRate:    48000,
			BlockSize:     64,
			QueueCapacity: 1024,
		},
		Graphics: GraphicsConfig{
			FrameRate:     60,
			QueueCapacity: 256,
		},
		Logic: LogicConfig{
			RateHz:        50,
			QueueCapacity: 256,
		},
	}
}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, field string, value any, msg string) {
		if !ok {
			errs = append(errs, &ValidationError{Field: field, Value: value, Message: msg})
		}
	}

	_, known := logging.ParseLevel(c.Log.Level)
	check(known, "log.level", c.Log.Level, "must be debug, info, warn or error")

	check(c.Audio.SampleRate >= 8000 && c.Audio.SampleRate <= 192000,
		"audio.sample_rate", c.Audio.SampleRate, "must be between 8000 and 192000")
	check(c.Audio.BlockSize > 0 && c.Audio.BlockSize <= 8192,
		"audio.block_size", c.Audio.BlockSize, "must be between 1 and 8192")
	check(c.Audio.QueueCapacity > 0, "audio.queue_capacity", c.Audio.QueueCapacity, "must be positive")

	check(c.Graphics.FrameRate > 0 && c.Graphics.FrameRate <= 240,
		"graphics.frame_rate", c.Graphics.FrameRate, "must be between 1 and 240")
	check(c.Graphics.QueueCapacity > 0, "graphics.queue_capacity", c.Graphics.QueueCapacity, "must be positive")

	check(c.Logic.RateHz > 0 && c.Logic.RateHz <= 1000,
		"logic.rate_hz", c.Logic.RateHz, "must be between 1 and 1000")
	check(c.Logic.QueueCapacity > 0, "logic.queue_capacity", c.Logic.QueueCapacity, "must be positive")

	check(!c.Script.Watch || c.Script.Path != "", "script.watch", c.Script.Watch, "requires script.path")

	return errors.Join(errs...)
}
