// errors.go defines the error types ohcrash returns and the helpers that read
// name, message and stack from arbitrary captured values.

package ohcrash

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// ErrMissingEndpoint is returned by New when the endpoint is empty.
	ErrMissingEndpoint = errors.New("ohcrash: expected endpoint")

	// ErrMissingAPIKey is returned by FromAPIKey when the key is empty.
	ErrMissingAPIKey = errors.New("ohcrash: expected apiKey")

	// ErrRateLimited is returned by the HTTP transport when a send exceeds
	// the configured rate limit.
	ErrRateLimited = errors.New("ohcrash: report dropped by rate limit")

	// ErrTransportClosed is returned by transports after Close.
	ErrTransportClosed = errors.New("ohcrash: transport is closed")
)

// ConfigError is returned synchronously by constructors for invalid configuration.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DeliveryError is returned when the collection endpoint answers with a
// non-2xx status.
type DeliveryError struct {
	URL        string
	StatusCode int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("ohcrash: delivery to %s failed with status %d", e.URL, e.StatusCode)
}

// Error is an error value carrying a kind name and the stack at construction.
type Error struct {
	name    string
	message string
	stack   string
	cause   error
}

// NewError returns an error named "Error" with the current stack attached.
func NewError(message string) *Error {
	return &Error{
		name:    "Error",
		message: message,
		stack:   string(debug.Stack()),
	}
}

// NewNamedError returns an error with the given kind name and the current stack.
func NewNamedError(name, message string) *Error {
	return &Error{
		name:    name,
		message: message,
		stack:   string(debug.Stack()),
	}
}

// Errorf formats like fmt.Errorf, keeping any %w cause for Unwrap.
func Errorf(format string, args ...any) *Error {
	wrapped := fmt.Errorf(format, args...)
	return &Error{
		name:    "Error",
		message: wrapped.Error(),
		stack:   string(debug.Stack()),
		cause:   errors.Unwrap(wrapped),
	}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Name() string {
	if e == nil {
		return ""
	}
	return e.name
}

func (e *Error) Stack() string {
	if e == nil {
		return ""
	}
	return e.stack
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// PanicError wraps a value recovered from a panic.
type PanicError struct {
	Value any
	stack string
}

// NewPanicError wraps a recovered value with the stack captured at recovery.
func NewPanicError(recovered any, stack []byte) *PanicError {
	return &PanicError{Value: recovered, stack: string(stack)}
}

func (e *PanicError) Error() string {
	if e == nil {
		return ""
	}
	return formatRecovered(e.Value)
}

func (e *PanicError) Name() string { return "panic" }

func (e *PanicError) Stack() string {
	if e == nil {
		return ""
	}
	return e.stack
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if e == nil {
		return nil
	}
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// valueError carries a non-error value delivered on a capture channel.
type valueError struct {
	value any
}

func (e *valueError) Error() string { return formatRecovered(e.value) }

// asError converts any captured value into an error. Nil stays nil.
func asError(v any) error {
	switch val := v.(type) {
	case nil:
		return nil
	case error:
		return val
	default:
		return &valueError{value: v}
	}
}

type namer interface{ Name() string }

type stacker interface{ Stack() string }

// errorName returns the kind name of err: its Name() if it has one, otherwise
// its dynamic Go type without the pointer marker. A Name method that panics,
// such as one called on a nil pointer, yields "".
func errorName(err error) (name string) {
	if err == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			name = ""
		}
	}()
	if n, ok := err.(namer); ok {
		return n.Name()
	}
	if _, ok := err.(*valueError); ok {
		return ""
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}

// errorMessage returns err.Error(), recovering from broken Error methods.
func errorMessage(err error) (msg string) {
	if err == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			msg = ""
		}
	}()
	return err.Error()
}

// errorStack returns the first stack found in err's unwrap chain. A chain
// that panics while being walked yields "".
func errorStack(err error) (stack string) {
	if err == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			stack = ""
		}
	}()
	var s stacker
	if errors.As(err, &s) {
		return s.Stack()
	}
	return ""
}

// formatRecovered formats a recovered panic value as a string.
func formatRecovered(recovered any) string {
	if recovered == nil {
		return "<nil>"
	}
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", recovered)
}
