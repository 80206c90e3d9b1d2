package itc

import (
	"errors"
	"fmt"
)

// Sentinel errors for the action bus.
var (
	// ErrUnknownBus is returned when a bus name or id does not match Audio, Graphics or Logic.
	ErrUnknownBus = errors.New("unknown bus")

	// ErrContractViolation matches every *ContractViolation with errors.Is.
	ErrContractViolation = errors.New("itc contract violation")
)

// ContractViolation describes a lifetime or ownership bug: a receiver joined
// twice, closed twice, or a queue drained by two consumers at once. These are
// programming errors, so they are raised with panic rather than returned.
type ContractViolation struct {
	// Op is the operation that detected the violation ("join", "close", "drain", "send").
	Op string

	// Bus is the bus involved, if any.
	Bus string

	// Kind is the action kind involved, if any.
	Kind Kind

	// Receiver is the receiver ID involved, if any.
	Receiver string

	// Reason is a short description of the violated rule.
	Reason string
}

// Error implements the error interface.
func (v *ContractViolation) Error() string {
	msg := "itc: contract violation in " + v.Op
	if v.Bus != "" {
		msg += " on bus " + v.Bus
	}
	if v.Kind.Tag != "" {
		msg += " for " + v.Kind.String()
	}
	if v.Receiver != "" {
		msg += " by receiver " + v.Receiver
	}
	return msg + ": " + v.Reason
}

// Is allows errors.Is to match ContractViolation with ErrContractViolation.
func (v *ContractViolation) Is(target error) bool {
	return target == ErrContractViolation
}

// violate panics with a ContractViolation.
func violate(v *ContractViolation) {
	panic(v)
}

// PanicError wraps a value recovered from a handler during a drain.
type PanicError struct {
	// Bus is the bus that was draining.
	Bus string

	// Kind is the action kind of the dispatch whose handler panicked.
	Kind Kind

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic on bus %s for %s: %v", e.Bus, e.Kind, e.Value)
}
