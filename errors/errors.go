// Package errors defines the compile and runtime error types of stax, along
// with source locations, suggestions and a terminal formatter.
package errors

import (
	"fmt"
	"strings"
)

// SourceLocation places an error within a stax program. Source holds the
// text of the offending line so a report can quote it without the program.
type SourceLocation struct {
	Filename string
	Line     int
	Column   int
	Source   string
}

// String renders the location as file:line:col, or line:col for programs
// that did not come from a file.
func (s SourceLocation) String() string {
	pos := fmt.Sprintf("%d:%d", s.Line, s.Column)
	if s.Filename == "" {
		return pos
	}
	return s.Filename + ":" + pos
}

// IsZero reports whether no line or column was recorded. The filename
// alone does not count.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// StackFrame is one pending call on the return-address stack.
type StackFrame struct {
	// Address is the index of the call instruction.
	Address  int
	Location SourceLocation
}

func (f StackFrame) String() string {
	s := fmt.Sprintf("at call %d", f.Address)
	if !f.Location.IsZero() {
		s += " (" + f.Location.String() + ")"
	}
	return s
}

// FormatStackTrace lists the pending calls of a runtime error, innermost
// first as recorded by the VM. It returns "" when no call was pending.
func FormatStackTrace(frames []StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	lines := make([]string, 0, len(frames)+1)
	lines = append(lines, "Stack trace:")
	for _, frame := range frames {
		lines = append(lines, "  "+frame.String())
	}
	return strings.Join(lines, "\n") + "\n"
}

// FriendlyError is implemented by stax errors that can describe themselves
// with their location and hint attached.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}

// FormattableError is implemented by errors that FormatError can render
// with a source excerpt.
type FormattableError interface {
	Error() string
	ToFormatted() *FormattedError
}
