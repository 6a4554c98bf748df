package dis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/compiler"
	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/op"
)

func disableColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestDisassemble(t *testing.T) {
	program, err := compiler.Compile("set x 1\ntop: j> top 0 x\nj end\nend: println_p \"done\"", nil)
	require.Nil(t, err)

	instructions, err := Disassemble(program)
	require.Nil(t, err)
	require.Len(t, instructions, 10)

	require.Equal(t, "PUSH", instructions[0].Name)
	require.Equal(t, object.NewInt(1), instructions[0].Operand)
	require.Equal(t, "int", instructions[0].Annotation)
	require.Equal(t, 1, instructions[0].Line)

	require.Equal(t, []string{"top"}, instructions[2].Labels)
	require.Equal(t, op.JumpIf, instructions[5].Opcode)
	require.Equal(t, "top", instructions[5].Annotation)
	require.Equal(t, 2, instructions[5].Line)

	require.Equal(t, op.Jump, instructions[6].Opcode)
	require.Equal(t, "end", instructions[6].Annotation)
	require.Equal(t, []string{"end"}, instructions[7].Labels)
	require.Equal(t, "string", instructions[7].Annotation)
	require.Equal(t, "POP", instructions[9].Name)
}

func TestDisassembleEndTarget(t *testing.T) {
	program := bytecode.NewProgram(bytecode.ProgramParams{
		Instructions: []bytecode.Instruction{
			{Op: op.Jump, Operand: object.NewInt(1)},
		},
	})
	instructions, err := Disassemble(program)
	require.Nil(t, err)
	require.Equal(t, "<end>", instructions[0].Annotation)
}

func TestDisassembleUnresolved(t *testing.T) {
	program := bytecode.NewProgram(bytecode.ProgramParams{
		Instructions: []bytecode.Instruction{
			{Op: op.Call, Operand: object.NewString("missing")},
		},
	})
	_, err := Disassemble(program)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "unresolved CALL target")

	_, err = Disassemble(nil)
	require.NotNil(t, err)
}

func TestPrint(t *testing.T) {
	disableColor(t)

	program, err := compiler.Compile("set x 1\ntop: j> top 0 x", nil)
	require.Nil(t, err)
	instructions, err := Disassemble(program)
	require.Nil(t, err)

	var buf bytes.Buffer
	Print(instructions, &buf)

	expected := strings.TrimSpace(`
+--------+-------+---------+---------+------+
| OFFSET | LABEL | OPCODE  | OPERAND | INFO |
+--------+-------+---------+---------+------+
|      0 |       | PUSH    | 1       | int  |
|      1 |       | SET     | x       |      |
|      2 | top:  | GET     | x       |      |
|      3 |       | PUSH    | 0       | int  |
|      4 |       | GREATER |         |      |
|      5 |       | JUMP_IF | 2       | top  |
+--------+-------+---------+---------+------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestPrintOperands(t *testing.T) {
	disableColor(t)

	program, err := compiler.Compile(`push "a b"
push 'c'
conv string TRUE`, nil)
	require.Nil(t, err)
	instructions, err := Disassemble(program)
	require.Nil(t, err)

	var buf bytes.Buffer
	Print(instructions, &buf)
	out := buf.String()
	require.Contains(t, out, `"a b"`)
	require.Contains(t, out, `'c'`)
	require.Contains(t, out, "| string  |")
	require.Contains(t, out, "| TRUE    | bool")
}
