package bytecode

import (
	"fmt"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/op"
)

// Program is a compiled stax program. It is immutable after creation and
// safe for concurrent use.
type Program struct {
	instructions []Instruction
	locations    []SourceLocation
	labels       map[string]int
	source       string
	filename     string
}

// ProgramParams contains parameters for creating a new Program.
type ProgramParams struct {
	Instructions []Instruction
	Locations    []SourceLocation // One per instruction, may be empty
	Labels       map[string]int
	Source       string
	Filename     string
}

// NewProgram creates a new immutable Program from the given parameters.
// Input slices and maps are copied.
func NewProgram(params ProgramParams) *Program {
	return &Program{
		instructions: copyInstructions(params.Instructions),
		locations:    copyLocations(params.Locations),
		labels:       copyLabels(params.Labels),
		source:       params.Source,
		filename:     params.Filename,
	}
}

// InstructionCount returns the number of instructions.
func (p *Program) InstructionCount() int {
	return len(p.instructions)
}

// InstructionAt returns the instruction at the given index.
func (p *Program) InstructionAt(index int) Instruction {
	return p.instructions[index]
}

// LocationAt returns the source location for the instruction at the given
// index, or the zero location if none was recorded.
func (p *Program) LocationAt(ip int) SourceLocation {
	if ip < 0 || ip >= len(p.locations) {
		return SourceLocation{}
	}
	return p.locations[ip]
}

// LocationCount returns the number of recorded source locations.
func (p *Program) LocationCount() int {
	return len(p.locations)
}

// Source returns the source code the program was compiled from.
func (p *Program) Source() string {
	return p.source
}

// Filename returns the source filename.
func (p *Program) Filename() string {
	return p.filename
}

// GetSourceLine returns the source code line at the given 1-based line number.
func (p *Program) GetSourceLine(lineNum int) string {
	if lineNum < 1 || p.source == "" {
		return ""
	}
	lines := strings.Split(p.source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[lineNum-1], "\r")
}

// Labels returns a copy of the label table.
func (p *Program) Labels() map[string]int {
	return copyLabels(p.labels)
}

// LabelsAt returns the sorted names of the labels that denote the given
// instruction index.
func (p *Program) LabelsAt(index int) []string {
	var names []string
	for name, target := range p.labels {
		if target == index {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks that every instruction is well formed: known opcodes,
// operands present where required, and jump targets resolved to an
// index no greater than the instruction count.
func (p *Program) Validate() error {
	for i, instr := range p.instructions {
		info := op.GetInfo(instr.Op)
		if info.Name == "" {
			return fmt.Errorf("bytecode: invalid opcode %d at instruction %d", instr.Op, i)
		}
		if info.HasOperand && instr.Operand == nil {
			return fmt.Errorf("bytecode: %s at instruction %d is missing its operand", instr.Op, i)
		}
		if !info.HasOperand && instr.Operand != nil {
			return fmt.Errorf("bytecode: %s at instruction %d has an unexpected operand", instr.Op, i)
		}
		switch instr.Op {
		case op.Jump, op.JumpIf, op.Call:
			target, ok := instr.Target()
			if !ok {
				return fmt.Errorf("bytecode: unresolved jump target at instruction %d", i)
			}
			if target < 0 || target > len(p.instructions) {
				return fmt.Errorf("bytecode: jump target %d out of range at instruction %d", target, i)
			}
		case op.Get, op.Set:
			if _, ok := instr.Operand.(*object.String); !ok {
				return fmt.Errorf("bytecode: %s at instruction %d requires a name", instr.Op, i)
			}
		}
	}
	return nil
}

// Stats returns statistics about this program.
func (p *Program) Stats() Stats {
	variables := map[string]bool{}
	jumps := 0
	for _, instr := range p.instructions {
		if instr.Op.IsJump() {
			jumps++
		}
		if instr.Op == op.Set {
			if name, ok := instr.Name(); ok {
				variables[name] = true
			}
		}
	}
	return Stats{
		InstructionCount: len(p.instructions),
		LabelCount:       len(p.labels),
		VariableCount:    len(variables),
		JumpCount:        jumps,
		SourceBytes:      len(p.source),
	}
}
