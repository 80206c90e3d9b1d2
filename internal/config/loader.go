package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Loader layers defaults, a TOML file and environment variables.
type Loader struct {
	readFile func(path string) ([]byte, error)
	environ  map[string]string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithReadFile replaces the function used to read the config file.
func WithReadFile(fn func(path string) ([]byte, error)) LoaderOption {
	return func(l *Loader) {
		l.readFile = fn
	}
}

// WithEnvironment replaces the process environment with env.
func WithEnvironment(env map[string]string) LoaderOption {
	return func(l *Loader) {
		l.environ = env
	}
}

// NewLoader creates a loader reading from the OS file system and environment.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{readFile: os.ReadFile}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds a validated configuration. An empty path or a missing file
// leaves the defaults in place.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := l.readFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// File doesn't exist, not an error
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := decodeFile(path, data, cfg); err != nil {
				return nil, err
			}
		}
	}

	opts := env.Options{}
	if l.environ != nil {
		opts.Environment = l.environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load builds a validated configuration from path and the process environment.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// decodeFile decodes data over cfg, choosing YAML for .yaml and .yml files
// and TOML otherwise.
func decodeFile(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(path, data, cfg)
	default:
		return decodeTOML(path, data, cfg)
	}
}

// decodeYAML decodes data over cfg, rejecting keys cfg does not define.
func decodeYAML(path string, data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

// decodeTOML decodes data over cfg, rejecting keys cfg does not define.
func decodeTOML(path string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: path, Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}
