// Package op defines opcodes used by the stax compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint8

const (
	Invalid Code = 0

	// Stack
	Push  Code = 1
	Pop   Code = 2
	Dup   Code = 3
	Swap  Code = 4
	Clear Code = 5
	Size  Code = 6

	// Arithmetic
	Add Code = 10
	Sub Code = 11
	Mul Code = 12
	Div Code = 13
	Mod Code = 14

	// Logic
	And Code = 20
	Or  Code = 21
	Xor Code = 22
	Not Code = 23

	// Comparison
	Eq        Code = 30
	Neq       Code = 31
	Less      Code = 32
	Greater   Code = 33
	LessEq    Code = 34
	GreaterEq Code = 35

	// Control flow
	Jump   Code = 40
	JumpIf Code = 41
	Call   Code = 42
	Ret    Code = 43

	// Variables
	Get Code = 50
	Set Code = 51

	// I/O
	Print   Code = 60
	Println Code = 61
	Read    Code = 62
	ReadInt Code = 63

	// Sequences
	At  Code = 70
	Len Code = 71

	// Types
	Type    Code = 80
	Convert Code = 81
)

// Group identifies the family of operations an opcode belongs to. The
// virtual machine dispatches on the group first and then on the opcode.
type Group uint8

const (
	GroupNone Group = iota
	GroupStack
	GroupArithmetic
	GroupLogic
	GroupCompare
	GroupControl
	GroupVariable
	GroupIO
	GroupSequence
	GroupType
)

// String returns the lowercase name of the group, e.g. "arithmetic".
func (g Group) String() string {
	switch g {
	case GroupStack:
		return "stack"
	case GroupArithmetic:
		return "arithmetic"
	case GroupLogic:
		return "logic"
	case GroupCompare:
		return "comparison"
	case GroupControl:
		return "control"
	case GroupVariable:
		return "variable"
	case GroupIO:
		return "io"
	case GroupSequence:
		return "sequence"
	case GroupType:
		return "type"
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code Code
	Name string
	// HasOperand is true when the instruction embeds a value operand.
	HasOperand bool
	Group      Group
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op      Code
		name    string
		operand bool
		group   Group
	}
	ops := []opInfo{
		{Push, "PUSH", true, GroupStack},
		{Pop, "POP", false, GroupStack},
		{Dup, "DUP", false, GroupStack},
		{Swap, "SWAP", false, GroupStack},
		{Clear, "CLEAR", false, GroupStack},
		{Size, "SIZE", false, GroupStack},
		{Add, "ADD", false, GroupArithmetic},
		{Sub, "SUB", false, GroupArithmetic},
		{Mul, "MUL", false, GroupArithmetic},
		{Div, "DIV", false, GroupArithmetic},
		{Mod, "MOD", false, GroupArithmetic},
		{And, "AND", false, GroupLogic},
		{Or, "OR", false, GroupLogic},
		{Xor, "XOR", false, GroupLogic},
		{Not, "NOT", false, GroupLogic},
		{Eq, "EQ", false, GroupCompare},
		{Neq, "NEQ", false, GroupCompare},
		{Less, "LESS", false, GroupCompare},
		{Greater, "GREATER", false, GroupCompare},
		{LessEq, "LESS_EQ", false, GroupCompare},
		{GreaterEq, "GREATER_EQ", false, GroupCompare},
		{Jump, "JUMP", true, GroupControl},
		{JumpIf, "JUMP_IF", true, GroupControl},
		{Call, "CALL", true, GroupControl},
		{Ret, "RET", false, GroupControl},
		{Get, "GET", true, GroupVariable},
		{Set, "SET", true, GroupVariable},
		{Print, "PRINT", false, GroupIO},
		{Println, "PRINTLN", false, GroupIO},
		{Read, "READ", false, GroupIO},
		{ReadInt, "READ_INT", false, GroupIO},
		{At, "AT", false, GroupSequence},
		{Len, "LEN", false, GroupSequence},
		{Type, "TYPE", false, GroupType},
		{Convert, "CONVERT", false, GroupType},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:       o.op,
			Name:       o.name,
			HasOperand: o.operand,
			Group:      o.group,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}

// String returns the opcode name, e.g. "JUMP_IF".
func (c Code) String() string {
	return infos[c].Name
}

// IsJump reports whether the opcode takes a label operand that must be
// resolved to an instruction index.
func (c Code) IsJump() bool {
	return c == Jump || c == JumpIf || c == Call
}

// All returns every valid opcode in ascending order.
func All() []Code {
	var codes []Code
	for i, info := range infos {
		if info.Name != "" {
			codes = append(codes, Code(i))
		}
	}
	return codes
}
