package bytecode

import "fmt"

// SourceLocation is the line and column an instruction was compiled from.
// Both are 1-based. The filename and source text live on the Program and
// are not repeated per instruction.
type SourceLocation struct {
	Line   int
	Column int
}

func (s SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero reports whether the location is unset, as it is for indexes
// outside the program.
func (s SourceLocation) IsZero() bool {
	return s == SourceLocation{}
}
