package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders errors in a Rust-like style, optionally with ANSI colors.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

var (
	colorError     = forced(color.FgRed)
	colorErrorBold = forced(color.FgHiRed, color.Bold)
	colorCode      = forced(color.FgHiBlack)
	colorLocation  = forced(color.FgCyan)
	colorGutter    = forced(color.FgHiBlack)
	colorCaret     = forced(color.FgHiRed)
	colorHint      = forced(color.FgHiYellow)
	colorNote      = forced(color.FgHiBlue)
)

// forced returns a color that ignores the global NoColor setting. The
// Formatter decides for itself whether color is applied.
func forced(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// FormattedError represents an error ready for display.
type FormattedError struct {
	Code        ErrorCode
	Kind        string // "syntax error", "compile error", "runtime error"
	Message     string
	Filename    string
	Line        int
	Column      int
	EndColumn   int
	SourceLines []SourceLineEntry
	Hint        string
	Note        string
	Stack       []StackFrame
}

// SourceLineEntry represents a line of source code with its number.
type SourceLineEntry struct {
	Number int
	Text   string
	IsMain bool
}

func (f *Formatter) paint(c *color.Color, s string) string {
	if !f.UseColor {
		return s
	}
	return c.Sprint(s)
}

// Format formats a single error.
func (f *Formatter) Format(err *FormattedError) string {
	return f.FormatWithPrefix(err, "")
}

// FormatWithPrefix formats the error with an optional prefix like "1/5",
// shown when the error has no code.
func (f *Formatter) FormatWithPrefix(err *FormattedError, prefix string) string {
	var b strings.Builder

	width := 2
	if err.Line >= 100 {
		width = len(fmt.Sprintf("%d", err.Line))
	}
	gutter := strings.Repeat(" ", width)

	label := "error"
	if err.Kind != "" {
		label = err.Kind
	}
	b.WriteString(f.paint(colorErrorBold, label))
	if err.Code != "" {
		b.WriteString(f.paint(colorCode, fmt.Sprintf("[%s]", err.Code)))
	} else if prefix != "" {
		b.WriteString(f.paint(colorCode, fmt.Sprintf("[%s]", prefix)))
	}
	b.WriteString(f.paint(colorError, ": "))
	b.WriteString(err.Message)
	b.WriteString("\n")

	if err.Line > 0 || err.Filename != "" {
		loc := err.Filename
		if err.Line > 0 {
			if loc != "" {
				loc += ":"
			}
			loc += fmt.Sprintf("%d:%d", err.Line, err.Column)
		}
		b.WriteString(gutter)
		b.WriteString(f.paint(colorLocation, "-->"))
		b.WriteString(" ")
		b.WriteString(f.paint(colorLocation, loc))
		b.WriteString("\n")
	}

	if len(err.SourceLines) > 0 {
		b.WriteString(gutter)
		b.WriteString(f.paint(colorGutter, " |\n"))
		for _, line := range err.SourceLines {
			b.WriteString(f.paint(colorGutter, fmt.Sprintf("%*d | ", width, line.Number)))
			b.WriteString(line.Text)
			b.WriteString("\n")
			if !line.IsMain || err.Column <= 0 {
				continue
			}
			n := 1
			if err.EndColumn > err.Column {
				n = err.EndColumn - err.Column + 1
			}
			b.WriteString(gutter)
			b.WriteString(f.paint(colorGutter, " | "))
			b.WriteString(strings.Repeat(" ", err.Column-1))
			b.WriteString(f.paint(colorCaret, strings.Repeat("^", n)))
			b.WriteString("\n")
		}
	}

	if err.Hint != "" {
		b.WriteString(gutter)
		b.WriteString(f.paint(colorGutter, " |\n"))
		b.WriteString(gutter)
		b.WriteString(f.paint(colorGutter, " = "))
		b.WriteString(f.paint(colorHint, "hint: "))
		b.WriteString(err.Hint)
		b.WriteString("\n")
	}

	if err.Note != "" {
		b.WriteString(gutter)
		b.WriteString(f.paint(colorGutter, " = "))
		b.WriteString(f.paint(colorNote, "note: "))
		b.WriteString(err.Note)
		b.WriteString("\n")
	}

	if len(err.Stack) > 0 {
		b.WriteString(gutter)
		b.WriteString(f.paint(colorGutter, " = "))
		b.WriteString(f.paint(colorNote, "call stack:\n"))
		for _, frame := range err.Stack {
			b.WriteString(gutter)
			b.WriteString("     ")
			b.WriteString(frame.String())
			b.WriteString("\n")
		}
	}

	return b.String()
}

// FormatMultiple formats multiple errors followed by a summary line.
func (f *Formatter) FormatMultiple(errs []*FormattedError) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return f.Format(errs[0])
	}
	var b strings.Builder
	total := len(errs)
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.FormatWithPrefix(err, fmt.Sprintf("%d/%d", i+1, total)))
	}
	b.WriteString("\n")
	b.WriteString(f.paint(colorErrorBold, fmt.Sprintf("found %d errors", total)))
	b.WriteString("\n")
	return b.String()
}

// FormatError renders any error. Errors that know their source location are
// rendered with context, others as a single line.
func (f *Formatter) FormatError(err error) string {
	if fe, ok := err.(FormattableError); ok {
		return f.Format(fe.ToFormatted())
	}
	// Aggregates such as *multierror.Error are rendered one error at a time.
	if multi, ok := err.(interface{ WrappedErrors() []error }); ok {
		errs := multi.WrappedErrors()
		formatted := make([]*FormattedError, 0, len(errs))
		for _, e := range errs {
			fe, ok := e.(FormattableError)
			if !ok {
				formatted = append(formatted, &FormattedError{Message: e.Error()})
				continue
			}
			formatted = append(formatted, fe.ToFormatted())
		}
		return f.FormatMultiple(formatted)
	}
	return f.paint(colorErrorBold, "error") + f.paint(colorError, ": ") + err.Error() + "\n"
}
