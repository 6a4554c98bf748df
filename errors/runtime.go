package errors

import (
	"fmt"
	"strings"
)

// RuntimeError is a fault raised while executing a program. The VM never
// recovers from its own faults: the current run stops immediately.
type RuntimeError struct {
	Code     ErrorCode
	Message  string
	Op       string // Name of the opcode being executed
	IP       int    // Index of the faulting instruction
	Location SourceLocation
	Stack    []StackFrame
	Cause    error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString("runtime error: ")
	b.WriteString(e.Message)
	if e.Op != "" {
		fmt.Fprintf(&b, " (op %s", e.Op)
		if e.Location.Line > 0 {
			fmt.Fprintf(&b, ", line %d", e.Location.Line)
		}
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the underlying cause of the error.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// WithCause wraps the error with a cause.
func (e *RuntimeError) WithCause(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// FriendlyErrorMessage returns a human-friendly error message with the
// source line and pending calls.
func (e *RuntimeError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *RuntimeError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:     e.Code,
		Kind:     "runtime error",
		Message:  e.Message,
		Filename: e.Location.Filename,
		Line:     e.Location.Line,
		Column:   e.Location.Column,
		Stack:    e.Stack,
	}
	if e.Location.Source != "" {
		fe.SourceLines = []SourceLineEntry{
			{Number: e.Location.Line, Text: e.Location.Source, IsMain: true},
		}
	}
	if e.Op != "" {
		fe.Note = fmt.Sprintf("while executing %s at instruction %d", e.Op, e.IP)
	}
	return fe
}

// NewRuntimeError returns a RuntimeError with a formatted message.
func NewRuntimeError(code ErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
