package itc

import "reflect"

// Kind identifies an action kind at runtime. Two kinds are equal iff their tag
// and argument type are identical.
type Kind struct {
	// Tag is the name the action was declared with (e.g., "chorus.delay").
	Tag string

	// Args is the argument type carried by the action.
	Args reflect.Type
}

// String returns the kind as "tag(args)".
func (k Kind) String() string {
	if k.Args == nil {
		return k.Tag
	}
	return k.Tag + "(" + k.Args.String() + ")"
}

// Action declares a message kind carrying arguments of type T.
// Actions are declared once, typically as package-level variables, and shared
// by the senders and receivers of that kind.
type Action[T any] struct {
	kind Kind
}

// NewAction declares an action kind. It panics if tag is empty, since actions
// are declared at initialization time and an empty tag is a programming error.
func NewAction[T any](tag string) *Action[T] {
	if tag == "" {
		panic("itc: action tag must not be empty")
	}
	return &Action[T]{kind: Kind{Tag: tag, Args: reflect.TypeFor[T]()}}
}

// Kind returns the runtime identity of the action.
func (a *Action[T]) Kind() Kind {
	return a.kind
}

// Tag returns the tag the action was declared with.
func (a *Action[T]) Tag() string {
	return a.kind.Tag
}

// Data builds the immutable argument snapshot sent on a bus.
func (a *Action[T]) Data(args T) ActionData[T] {
	return ActionData[T]{action: a, args: args}
}

// ActionData is an immutable argument bundle for one action.
// It is owned by its dispatch from Send until the dispatch is drained.
type ActionData[T any] struct {
	action *Action[T]
	args   T
}

// Action returns the action the data was built for.
func (d ActionData[T]) Action() *Action[T] {
	return d.action
}

// Args returns the argument snapshot.
func (d ActionData[T]) Args() T {
	return d.args
}

// Args2 carries two ordered arguments.
type Args2[A, B any] struct {
	First  A
	Second B
}

// Args3 carries three ordered arguments.
type Args3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Pack2 builds an Args2 value.
func Pack2[A, B any](a A, b B) Args2[A, B] {
	return Args2[A, B]{First: a, Second: b}
}

// Pack3 builds an Args3 value.
func Pack3[A, B, C any](a A, b B, c C) Args3[A, B, C] {
	return Args3[A, B, C]{First: a, Second: b, Third: c}
}
