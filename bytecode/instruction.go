package bytecode

import (
	"fmt"

	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/op"
)

// Instruction is an opcode with an optional operand. PUSH carries the value
// to push, GET and SET carry the variable name as a String, and the jump
// family carries an Int target once resolved.
type Instruction struct {
	Op      op.Code
	Operand object.Object
}

// String returns a readable form such as "PUSH 10" or "GET foo".
func (i Instruction) String() string {
	if i.Operand == nil {
		return i.Op.String()
	}
	switch operand := i.Operand.(type) {
	case *object.String:
		if i.Op == op.Push {
			return fmt.Sprintf("%s %q", i.Op, operand.Value())
		}
		return fmt.Sprintf("%s %s", i.Op, operand.Value())
	case *object.Char:
		return fmt.Sprintf("%s '%s'", i.Op, operand.Inspect())
	default:
		return fmt.Sprintf("%s %s", i.Op, operand.Inspect())
	}
}

// Target returns the resolved jump target of a jump family instruction.
func (i Instruction) Target() (int, bool) {
	if !i.Op.IsJump() {
		return 0, false
	}
	target, ok := i.Operand.(*object.Int)
	if !ok {
		return 0, false
	}
	return int(target.Value()), true
}

// Name returns the variable name operand of GET and SET, or the symbolic
// label of an unresolved jump.
func (i Instruction) Name() (string, bool) {
	name, ok := i.Operand.(*object.String)
	if !ok || i.Op == op.Push {
		return "", false
	}
	return name.Value(), true
}
