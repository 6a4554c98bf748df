// Package dis supports analysis of stax programs by disassembling them.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/internal/table"
	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/op"
)

// Instruction represents a single instruction with its operand and
// annotations.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Operand    object.Object
	Labels     []string
	Line       int
	Annotation string
}

// Disassemble returns a parsed representation of the given program.
func Disassemble(program *bytecode.Program) ([]Instruction, error) {
	if program == nil {
		return nil, fmt.Errorf("no program to disassemble")
	}
	var instructions []Instruction
	for i := 0; i < program.InstructionCount(); i++ {
		instr := program.InstructionAt(i)
		var annotation string
		switch {
		case instr.Op.IsJump():
			target, ok := instr.Target()
			if !ok {
				return nil, fmt.Errorf("unresolved %s target at offset %d", instr.Op, i)
			}
			annotation = targetAnnotation(program, target)
		case instr.Op == op.Push && instr.Operand != nil:
			annotation = instr.Operand.Type().String()
		}
		instructions = append(instructions, Instruction{
			Offset:     i,
			Name:       instr.Op.String(),
			Opcode:     instr.Op,
			Operand:    instr.Operand,
			Labels:     program.LabelsAt(i),
			Line:       program.LocationAt(i).Line,
			Annotation: annotation,
		})
	}
	return instructions, nil
}

func targetAnnotation(program *bytecode.Program, target int) string {
	if labels := program.LabelsAt(target); len(labels) > 0 {
		return strings.Join(labels, ", ")
	}
	if target == program.InstructionCount() {
		return "<end>"
	}
	return ""
}

var (
	colorOpcode = color.New(color.Bold)
	colorLabel  = color.New(color.FgMagenta)
	colorInt    = color.New(color.FgYellow)
	colorString = color.New(color.FgGreen)
	colorName   = color.New(color.FgHiCyan)
	colorInfo   = color.New(color.FgHiBlack)
)

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		var label string
		if len(instr.Labels) > 0 {
			label = colorLabel.Sprint(strings.Join(instr.Labels, ":, ") + ":")
		}
		lines = append(lines, []string{
			fmt.Sprintf("%d", instr.Offset),
			label,
			colorOpcode.Sprint(instr.Name),
			formatOperand(instr),
			colorInfo.Sprint(instr.Annotation),
		})
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "LABEL", "OPCODE", "OPERAND", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

func formatOperand(instr Instruction) string {
	switch operand := instr.Operand.(type) {
	case nil:
		return ""
	case *object.String:
		if instr.Opcode == op.Push {
			s := operand.Value()
			if len(s) > 40 {
				s = s[:37] + "..."
			}
			return colorString.Sprintf("%q", s)
		}
		return colorName.Sprint(operand.Value())
	case *object.Char:
		return colorString.Sprintf("'%s'", operand.Inspect())
	case *object.Int:
		return colorInt.Sprint(operand.Inspect())
	default:
		return operand.Inspect()
	}
}
