package props

import (
	"fmt"
	"math"

	"github.com/dshills/tonewire/internal/itc"
)

// Number is the set of types a Property can hold.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Limits is an inclusive value range.
type Limits[T Number] struct {
	Min T
	Max T
}

// Clamp returns v limited to [Min, Max].
func (l Limits[T]) Clamp(v T) T {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// Contains reports whether v lies within the range.
func (l Limits[T]) Contains(v T) bool {
	return v >= l.Min && v <= l.Max
}

// StepPolicy controls how Set quantizes values.
type StepPolicy int

const (
	// StepNearest rounds to the nearest multiple of the step size.
	StepNearest StepPolicy = iota
	// StepNone stores clamped values unchanged; the step only drives Step.
	StepNone
)

// Change is the payload sent on a property's change action.
type Change[T Number] struct {
	// Prop is the property tag (sender.property).
	Prop  string
	Value T
}

// Option configures a Property.
type Option[T Number] func(*Property[T])

// WithStep sets the step size. Zero disables quantization.
func WithStep[T Number](step T) Option[T] {
	return func(p *Property[T]) {
		p.step = step
	}
}

// WithPolicy sets the step policy.
func WithPolicy[T Number](policy StepPolicy) Option[T] {
	return func(p *Property[T]) {
		p.policy = policy
	}
}

// Property is a bounded numeric value owned by one domain. Every effective
// change is sent to the buses of its sender so mirrors in other domains can
// follow it.
//
// A Property is not safe for concurrent use: Get, Set and Step must be called
// from the domain that owns it. Other domains observe it through its change
// action.
type Property[T Number] struct {
	sender *Sender
	name   string
	tag    string
	action *itc.Action[Change[T]]
	limits Limits[T]
	step   T
	policy StepPolicy
	value  T
}

// NewProperty declares a property on sender. The default value is clamped and
// quantized like any other value, but no change is sent for it.
func NewProperty[T Number](sender *Sender, name string, def T, limits Limits[T], opts ...Option[T]) (*Property[T], error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: property %q", ErrInvalidName, name)
	}
	if limits.Min > limits.Max {
		return nil, fmt.Errorf("%w: %s.%s [%v, %v]", ErrInvalidRange, sender.name, name, limits.Min, limits.Max)
	}

	p := &Property[T]{
		sender: sender,
		name:   name,
		tag:    sender.name + "." + name,
		limits: limits,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.step < 0 {
		return nil, fmt.Errorf("%w: %s = %v", ErrInvalidStep, p.tag, p.step)
	}
	if err := sender.group.Add(p); err != nil {
		return nil, err
	}

	p.action = itc.NewAction[Change[T]](p.tag)
	if v, ok := p.constrain(def); ok {
		p.value = v
	} else {
		p.value = limits.Min
	}
	for _, b := range sender.buses {
		itc.Prepare(b, p.action)
	}
	return p, nil
}

// Name returns the property name within its sender.
func (p *Property[T]) Name() string {
	return p.name
}

// Tag returns the full property name, sender.property.
func (p *Property[T]) Tag() string {
	return p.tag
}

// Action returns the change action sent when the value changes.
func (p *Property[T]) Action() *itc.Action[Change[T]] {
	return p.action
}

// Limits returns the inclusive value range.
func (p *Property[T]) Limits() Limits[T] {
	return p.limits
}

// StepSize returns the step size.
func (p *Property[T]) StepSize() T {
	return p.step
}

// Get returns the current value.
func (p *Property[T]) Get() T {
	return p.value
}

// Set stores v after clamping and quantizing it. If the stored value changed,
// a Change is sent to every bus of the sender. Set reports whether the value
// changed; a NaN leaves the property untouched.
func (p *Property[T]) Set(v T) bool {
	nv, ok := p.constrain(v)
	if !ok || nv == p.value {
		return false
	}
	p.value = nv
	itc.SendTo(p.sender.buses, p.action, Change[T]{Prop: p.tag, Value: nv})
	return true
}

// Step moves the value by n steps. With no step size the increment is one
// hundredth of the range, or one for integer properties.
func (p *Property[T]) Step(n int) bool {
	inc := float64(p.increment())
	return p.Set(p.fromFloat(float64(p.value) + float64(n)*inc))
}

// On declares a handler for this property's changes, for use with itc.Join.
func (p *Property[T]) On(fn func(T)) itc.Handling {
	return itc.On(p.action, func(c Change[T]) {
		fn(c.Value)
	})
}

// Float returns the value as float64.
func (p *Property[T]) Float() float64 {
	return float64(p.value)
}

// SetFloat sets the value from a float64, rounding for integer properties.
func (p *Property[T]) SetFloat(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	return p.Set(p.fromFloat(v))
}

// Bounds returns the range as float64.
func (p *Property[T]) Bounds() (lo, hi float64) {
	return float64(p.limits.Min), float64(p.limits.Max)
}

// Watch declares a handler receiving this property's changes as float64.
func (p *Property[T]) Watch(fn func(tag string, v float64)) itc.Handling {
	return itc.On(p.action, func(c Change[T]) {
		fn(c.Prop, float64(c.Value))
	})
}

// constrain clamps and quantizes v. It reports false for NaN.
func (p *Property[T]) constrain(v T) (T, bool) {
	if math.IsNaN(float64(v)) {
		return v, false
	}
	v = p.limits.Clamp(v)
	if p.policy == StepNearest && p.step > 0 {
		v = p.fromFloat(quantize(float64(v), float64(p.step)))
	}
	return v, true
}

func (p *Property[T]) increment() T {
	if p.step > 0 {
		return p.step
	}
	if isInteger[T]() {
		return 1
	}
	if inc := (p.limits.Max - p.limits.Min) / 100; inc > 0 {
		return inc
	}
	return 1
}

// quantize rounds x to the nearest multiple of step. Steps that are the
// reciprocal of an integer (0.01, 0.5) are computed as round(x*k)/k so that
// values like 0.83 survive the round trip exactly.
func quantize(x, step float64) float64 {
	inv := 1 / step
	if k := math.Round(inv); k >= 1 && math.Abs(inv-k) < 1e-9*k {
		return math.Round(x*k) / k
	}
	return math.Round(x/step) * step
}

// fromFloat converts f to T within the property's range, rounding to nearest
// for integer types.
func (p *Property[T]) fromFloat(f float64) T {
	lo, hi := p.Bounds()
	f = math.Max(lo, math.Min(hi, f))
	if isInteger[T]() {
		f = math.Round(f)
	}
	return p.limits.Clamp(T(f))
}

func isInteger[T Number]() bool {
	half := 0.5
	return T(half) == 0
}
