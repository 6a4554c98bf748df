package compiler

import (
	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/op"
	"github.com/deepnoodle-ai/stax/token"
)

// Code is the mutable program under construction. Jump family operands are
// String label names until they are resolved to Int instruction indexes.
type Code struct {
	instructions []bytecode.Instruction
	locations    []bytecode.SourceLocation
	labels       map[string]int
	// Token that declared each label, for error reporting
	labelTokens map[string]token.Token
}

func newCode() *Code {
	return &Code{
		labels:      map[string]int{},
		labelTokens: map[string]token.Token{},
	}
}

// emit appends an instruction and returns its index.
func (c *Code) emit(tok token.Token, code op.Code, operand object.Object) int {
	c.instructions = append(c.instructions, bytecode.Instruction{Op: code, Operand: operand})
	c.locations = append(c.locations, bytecode.SourceLocation{
		Line:   tok.StartPosition.LineNumber(),
		Column: tok.StartPosition.ColumnNumber(),
	})
	return len(c.instructions) - 1
}

// InstructionCount returns the number of instructions emitted so far.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// ToBytecode returns an immutable Program holding the current instructions.
func (c *Code) ToBytecode(source, filename string) *bytecode.Program {
	return bytecode.NewProgram(bytecode.ProgramParams{
		Instructions: c.instructions,
		Locations:    c.locations,
		Labels:       c.labels,
		Source:       source,
		Filename:     filename,
	})
}
