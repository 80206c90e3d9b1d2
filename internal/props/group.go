package props

import (
	"fmt"
	"sync"

	"github.com/dshills/tonewire/internal/itc"
)

// Field is the type-erased view of a Property used by generic editors,
// scripts and presets.
type Field interface {
	// Name returns the name within the sender.
	Name() string
	// Tag returns the full name, sender.property.
	Tag() string
	// Float returns the current value.
	Float() float64
	// SetFloat sets the value and reports whether it changed.
	SetFloat(v float64) bool
	// Step moves the value by n steps and reports whether it changed.
	Step(n int) bool
	// Bounds returns the inclusive range.
	Bounds() (lo, hi float64)
	// Watch declares a handler receiving changes as float64.
	Watch(fn func(tag string, v float64)) itc.Handling
}

// Group enumerates fields by tag in insertion order.
type Group struct {
	mu     sync.RWMutex
	fields []Field
	index  map[string]Field
}

// NewGroup creates a group holding fields.
func NewGroup(fields ...Field) *Group {
	g := &Group{index: make(map[string]Field)}
	for _, f := range fields {
		// Duplicates are ignored here; use Add to detect them.
		_ = g.Add(f)
	}
	return g
}

// Add appends f to the group.
func (g *Group) Add(f Field) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.index[f.Tag()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProperty, f.Tag())
	}
	g.fields = append(g.fields, f)
	g.index[f.Tag()] = f
	return nil
}

// Merge returns a new group with the fields of g followed by those of others.
func (g *Group) Merge(others ...*Group) *Group {
	merged := NewGroup(g.Fields()...)
	for _, o := range others {
		for _, f := range o.Fields() {
			_ = merged.Add(f)
		}
	}
	return merged
}

// Len returns the number of fields.
func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.fields)
}

// Fields returns the fields in insertion order.
func (g *Group) Fields() []Field {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Field(nil), g.fields...)
}

// Names returns the field tags in insertion order.
func (g *Group) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, len(g.fields))
	for i, f := range g.fields {
		names[i] = f.Tag()
	}
	return names
}

// Lookup returns the field with the given tag.
func (g *Group) Lookup(tag string) (Field, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f, ok := g.index[tag]
	return f, ok
}

// GetFloat returns the value of the named field.
func (g *Group) GetFloat(tag string) (float64, error) {
	f, ok := g.Lookup(tag)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownProperty, tag)
	}
	return f.Float(), nil
}

// SetFloat sets the named field and reports whether its value changed.
func (g *Group) SetFloat(tag string, v float64) (bool, error) {
	f, ok := g.Lookup(tag)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownProperty, tag)
	}
	return f.SetFloat(v), nil
}

// Watch returns one handling per field, all calling fn, for joining a single
// receiver to every change in the group.
func (g *Group) Watch(fn func(tag string, v float64)) []itc.Handling {
	fields := g.Fields()
	hs := make([]itc.Handling, len(fields))
	for i, f := range fields {
		hs[i] = f.Watch(fn)
	}
	return hs
}
