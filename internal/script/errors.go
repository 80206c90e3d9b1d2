package script

import (
	"errors"
	"fmt"
)

// Errors returned by the script runner.
var (
	// ErrRunnerClosed is returned when the runner has been closed.
	ErrRunnerClosed = errors.New("script runner closed")
)

// ScriptError wraps a failure loading or running a script.
type ScriptError struct {
	// Path is the script file, or empty for inline code.
	Path string
	// Func is the Lua function that failed, if any.
	Func string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	where := e.Path
	if where == "" {
		where = "<inline>"
	}
	if e.Func != "" {
		return fmt.Sprintf("script %s: %s: %v", where, e.Func, e.Err)
	}
	return fmt.Sprintf("script %s: %v", where, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
