package bytecode

// Stats contains statistics about a compiled program.
// This is useful for auditing scripts before execution.
type Stats struct {
	// InstructionCount is the total number of instructions.
	InstructionCount int

	// LabelCount is the number of declared labels.
	LabelCount int

	// VariableCount is the number of distinct variables stored by SET.
	VariableCount int

	// JumpCount is the number of jump, conditional jump and call instructions.
	JumpCount int

	// SourceBytes is the size of the original source code in bytes.
	SourceBytes int
}
