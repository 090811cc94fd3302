// Package errors provides structured error handling for Strata.
//
// Every error raised by the block store carries an ErrorType that tells the
// caller which side is at fault:
//
//   - ErrorTypeValidation: the caller passed invalid input (empty sequences,
//     oversized sequences, type mismatches, unsupported operators).
//   - ErrorTypeCapacity: a size limit was exceeded (a record that cannot fit
//     a block, a payload longer than its 16-bit length slot, a sink that is
//     too small).
//   - ErrorTypeInvariant: an internal invariant broke; this is a bug.
//   - ErrorTypeCorrupt: a payload is inconsistent with its metadata.
//   - ErrorTypeConfig: configuration failed validation.
//
// None of these are transient. Callers decide whether to abort the operation
// or fail the enclosing transaction.
package errors

import (
	"errors"
	"runtime"

	stringpool "github.com/ajitpratap0/strata/pkg/strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents invalid caller input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeCapacity represents a violated size budget
	ErrorTypeCapacity ErrorType = "capacity"
	// ErrorTypeInvariant represents a broken internal invariant
	ErrorTypeInvariant ErrorType = "invariant"
	// ErrorTypeCorrupt represents a payload that does not match its metadata
	ErrorTypeCorrupt ErrorType = "corrupt"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeIO represents filesystem failures outside the core
	ErrorTypeIO ErrorType = "io"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return stringpool.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return stringpool.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: stringpool.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the type of the outermost structured error in err's chain,
// or ErrorTypeInvariant when err carries none.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInvariant
	}
	return e.Type
}

// IsCallerError reports whether err was caused by invalid caller input.
func IsCallerError(err error) bool {
	return IsType(err, ErrorTypeValidation) || IsType(err, ErrorTypeConfig)
}

// IsFatal reports whether err signals misconfiguration or an internal bug.
func IsFatal(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeCapacity, ErrorTypeInvariant, ErrorTypeCorrupt:
		return true
	default:
		return false
	}
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
