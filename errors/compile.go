package errors

import (
	"fmt"
	"strings"
)

// CompileError is a lexical or compile time fault. It always aborts
// compilation of the current statement or program.
type CompileError struct {
	Code        ErrorCode
	Message     string
	Filename    string
	Line        int // 1-based, 0 when unknown
	Column      int // 1-based, 0 when unknown
	EndColumn   int
	SourceLine  string
	Suggestions []Suggestion
	Note        string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.Category())
	b.WriteString(" error: ")
	b.WriteString(e.Message)
	if e.Line > 0 {
		b.WriteString(" (")
		if e.Filename != "" {
			b.WriteString(e.Filename)
			b.WriteString(":")
		}
		if e.Column > 0 {
			fmt.Fprintf(&b, "%d:%d", e.Line, e.Column)
		} else {
			fmt.Fprintf(&b, "line %d", e.Line)
		}
		b.WriteString(")")
	}
	return b.String()
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *CompileError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:      e.Code,
		Kind:      e.Code.Category() + " error",
		Message:   e.Message,
		Filename:  e.Filename,
		Line:      e.Line,
		Column:    e.Column,
		EndColumn: e.EndColumn,
		Note:      e.Note,
	}
	if e.SourceLine != "" {
		fe.SourceLines = []SourceLineEntry{
			{Number: e.Line, Text: e.SourceLine, IsMain: true},
		}
	}
	if len(e.Suggestions) > 0 {
		fe.Hint = FormatSuggestions(e.Suggestions)
	}
	return fe
}

// NewCompileError returns a CompileError with a formatted message.
func NewCompileError(code ErrorCode, line int, format string, args ...any) *CompileError {
	return &CompileError{
		Code:    code,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}
