package vm

import (
	"bytes"
	"context"
	goerrors "errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/compiler"
	"github.com/deepnoodle-ai/stax/errors"
	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/op"
)

func compile(t *testing.T, source string) *bytecode.Program {
	t.Helper()
	program, err := compiler.Compile(source, nil)
	require.Nil(t, err)
	return program
}

// run compiles and runs source on a fresh VM with empty input.
func run(t *testing.T, source string, options ...Option) (object.Object, error) {
	t.Helper()
	options = append([]Option{WithInput(strings.NewReader("")), WithOutput(&bytes.Buffer{})}, options...)
	return Run(context.Background(), compile(t, source), options...)
}

func requireRuntimeCode(t *testing.T, err error, code errors.ErrorCode) *errors.RuntimeError {
	t.Helper()
	require.NotNil(t, err)
	var runtimeErr *errors.RuntimeError
	require.True(t, goerrors.As(err, &runtimeErr), "expected a runtime error, got %T: %v", err, err)
	require.Equal(t, code, runtimeErr.Code, runtimeErr.Error())
	return runtimeErr
}

func TestEndToEnd(t *testing.T) {
	result, err := run(t, "set foo 10\nmul foo 2\nset bar\nsub 5 bar")
	require.Nil(t, err)
	require.Equal(t, object.NewInt(15), result)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   int32
	}{
		{"add 5 10", 15},
		{"sub 5 10", 5},
		{"sub 10 5", -5},
		{"mul 3 4", 12},
		{"div 2 10", 5},
		{"div 3 -7", -2},
		{"mod 3 -7", -1},
		{"mod 4 10", 2},
		{"+ 1 * 2 3", 7},
		{"- 1 0", -1},
		{"add 1 2147483647", -2147483648},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result, err := run(t, tt.source)
			require.Nil(t, err)
			require.Equal(t, object.NewInt(tt.want), result)
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	tests := []struct {
		source string
		code   errors.ErrorCode
	}{
		{"div 0 10", errors.E3002},
		{"mod 0 10", errors.E3002},
		{"add 1 'c'", errors.E3001},
		{"add TRUE 1", errors.E3001},
		{`mul "a" "b"`, errors.E3001},
		{"add 1", errors.E3005},
		{"sub", errors.E3005},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := run(t, tt.source)
			requireRuntimeCode(t, err, tt.code)
		})
	}
}

func TestLogic(t *testing.T) {
	tests := []struct {
		source string
		want   object.Object
	}{
		{"and TRUE FALSE", object.False},
		{"or TRUE FALSE", object.True},
		{"xor TRUE TRUE", object.False},
		{"or 12 10", object.NewInt(14)},
		{"and 12 10", object.NewInt(8)},
		{"xor 6 3", object.NewInt(5)},
		{"and 'a' 'b'", object.NewChar('`')},
		{"not 0", object.False},
		{"not 5", object.True},
		{"not TRUE", object.True},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result, err := run(t, tt.source)
			require.Nil(t, err)
			require.Equal(t, tt.want, result)
		})
	}
}

func TestLogicErrors(t *testing.T) {
	tests := []struct {
		source string
		code   errors.ErrorCode
	}{
		{"and 1 TRUE", errors.E3001},
		{`and "a" "b"`, errors.E3001},
		{`not "x"`, errors.E3001},
		{"not", errors.E3005},
		{"or 1", errors.E3005},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := run(t, tt.source)
			requireRuntimeCode(t, err, tt.code)
		})
	}
}

func TestComparison(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"eq 1 1", true},
		{"eq 1 2", false},
		{"eq 97 'a'", false},
		{`eq "ab" "ab"`, true},
		{"eq TRUE 1", false},
		{"neq 1 2", true},
		{`neq "a" "a"`, false},
		{"lt 1 2", false},
		{"lt 2 1", true},
		{"gt 1 2", true},
		{"gt 2 1", false},
		{"lte 3 3", true},
		{"lte 3 4", false},
		{"gte 5 3", false},
		{"gte 3 5", true},
		{"gte 'a' 'a'", true},
		{"gt 'a' 98", true},
		{"< TRUE FALSE", true},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result, err := run(t, tt.source)
			require.Nil(t, err)
			require.Equal(t, object.NewBool(tt.want), result)
		})
	}
}

func TestComparisonErrors(t *testing.T) {
	_, err := run(t, `lt "a" "b"`)
	requireRuntimeCode(t, err, errors.E3001)

	_, err = run(t, "gte 1")
	requireRuntimeCode(t, err, errors.E3005)
}

func TestStackOps(t *testing.T) {
	machine := New(WithOutput(&bytes.Buffer{}))
	ctx := context.Background()

	require.Nil(t, machine.Run(ctx, compile(t, "dup 3")))
	require.Equal(t, []object.Object{object.NewInt(3), object.NewInt(3)}, machine.Stack())

	require.Nil(t, machine.Run(ctx, compile(t, "clear")))
	require.Empty(t, machine.Stack())

	require.Nil(t, machine.Run(ctx, compile(t, "swap 1 2")))
	require.Equal(t, []object.Object{object.NewInt(1), object.NewInt(2)}, machine.Stack())

	require.Nil(t, machine.Run(ctx, compile(t, "size")))
	tos, ok := machine.TOS()
	require.True(t, ok)
	require.Equal(t, object.NewInt(2), tos)

	require.Nil(t, machine.Run(ctx, compile(t, "pop")))
	require.Len(t, machine.Stack(), 2)

	value, ok := machine.Pop()
	require.True(t, ok)
	require.Equal(t, object.NewInt(2), value)
}

func TestStackUnderflow(t *testing.T) {
	for _, source := range []string{"pop", "dup", "swap 1", "set x", "println", "jif end\nend: push 1"} {
		t.Run(source, func(t *testing.T) {
			_, err := run(t, source)
			requireRuntimeCode(t, err, errors.E3005)
		})
	}
}

func TestStackOverflow(t *testing.T) {
	_, err := run(t, "dup dup dup 1", WithMaxStackDepth(3))
	requireRuntimeCode(t, err, errors.E3011)

	result, err := run(t, "dup dup 1", WithMaxStackDepth(3))
	require.Nil(t, err)
	require.Equal(t, object.NewInt(1), result)
}

func TestCallDepthOverflow(t *testing.T) {
	_, err := run(t, "loop: call loop", WithMaxStackDepth(10))
	requireRuntimeCode(t, err, errors.E3011)
}

func TestForwardJump(t *testing.T) {
	machine := New()
	require.Nil(t, machine.Run(context.Background(), compile(t, "j end\npush 1\nend: push 2")))
	require.Equal(t, []object.Object{object.NewInt(2)}, machine.Stack())
}

func TestConditionalJump(t *testing.T) {
	source := `set n 5
j> big 3 n
push "small"
j end
big: push "big"
end: size`
	machine := New()
	require.Nil(t, machine.Run(context.Background(), compile(t, source)))
	require.Equal(t, []object.Object{object.NewString("big"), object.NewInt(1)}, machine.Stack())
}

func TestJumpIfRequiresIntegral(t *testing.T) {
	_, err := run(t, "jif end \"yes\"\nend: push 1")
	requireRuntimeCode(t, err, errors.E3001)
}

func TestCallAndReturn(t *testing.T) {
	source := `set x 21
call double
j end
double: set x mul 2 x
ret
end: push x`
	result, err := run(t, source)
	require.Nil(t, err)
	require.Equal(t, object.NewInt(42), result)
}

func TestRetRestartsProgram(t *testing.T) {
	c := compiler.New(nil)
	machine := New()
	ctx := context.Background()

	first, err := c.CompileSource("set counter 0")
	require.Nil(t, err)
	require.Nil(t, machine.Run(ctx, first))

	loop, err := c.CompileSource("set counter add 1 counter\nj>= done 3 counter\nret\ndone: push counter")
	require.Nil(t, err)
	require.Nil(t, machine.Run(ctx, loop))

	tos, ok := machine.TOS()
	require.True(t, ok)
	require.Equal(t, object.NewInt(3), tos)
	require.Len(t, machine.Stack(), 1)
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	machine := New(WithContextCheckInterval(10))
	err := machine.Run(ctx, compile(t, "set x 0\nret"))
	requireRuntimeCode(t, err, errors.E3012)
	require.True(t, goerrors.Is(err, context.Canceled))

	// The VM is usable again after a cancelled run
	require.Nil(t, machine.Run(context.Background(), compile(t, "push 1")))
}

func TestVariables(t *testing.T) {
	c := compiler.New(nil)
	machine := New()
	ctx := context.Background()

	p1, err := c.CompileSource("set b 2\nset a 1")
	require.Nil(t, err)
	require.Nil(t, machine.Run(ctx, p1))

	p2, err := c.CompileSource("add a b")
	require.Nil(t, err)
	require.Nil(t, machine.Run(ctx, p2))

	tos, ok := machine.TOS()
	require.True(t, ok)
	require.Equal(t, object.NewInt(3), tos)
	require.Equal(t, []string{"a", "b"}, machine.Variables())

	value, err := machine.Get("b")
	require.Nil(t, err)
	require.Equal(t, object.NewInt(2), value)

	_, err = machine.Get("missing")
	require.True(t, goerrors.Is(err, ErrVariableNotFound))

	require.Nil(t, machine.Reset())
	require.Empty(t, machine.Variables())
	require.Empty(t, machine.Stack())
}

func TestUndefinedVariableAtRuntime(t *testing.T) {
	program := bytecode.NewProgram(bytecode.ProgramParams{
		Instructions: []bytecode.Instruction{{Op: op.Get, Operand: object.NewString("ghost")}},
	})
	_, err := Run(context.Background(), program)
	requireRuntimeCode(t, err, errors.E3004)
}

func TestInvalidInstructions(t *testing.T) {
	tests := []struct {
		name  string
		instr bytecode.Instruction
	}{
		{"push without operand", bytecode.Instruction{Op: op.Push}},
		{"unresolved jump", bytecode.Instruction{Op: op.Jump, Operand: object.NewString("end")}},
		{"jump out of range", bytecode.Instruction{Op: op.Call, Operand: object.NewInt(7)}},
		{"set without name", bytecode.Instruction{Op: op.Set}},
		{"unknown opcode", bytecode.Instruction{Op: op.Code(200)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := bytecode.NewProgram(bytecode.ProgramParams{
				Instructions: []bytecode.Instruction{tt.instr},
			})
			_, err := Run(context.Background(), program)
			requireRuntimeCode(t, err, errors.E3008)
		})
	}
}

func TestSequences(t *testing.T) {
	tests := []struct {
		source string
		want   object.Object
	}{
		{`at "hello" 1`, object.NewChar('e')},
		{`at "hello" 0`, object.NewChar('h')},
		{`len "hello"`, object.NewInt(5)},
		{`len ""`, object.NewInt(0)},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result, err := run(t, tt.source)
			require.Nil(t, err)
			require.Equal(t, tt.want, result)
		})
	}
}

func TestSequenceErrors(t *testing.T) {
	tests := []struct {
		source string
		code   errors.ErrorCode
	}{
		{`at "hi" 5`, errors.E3003},
		{`at "hi" -1`, errors.E3003},
		{`at "hi" 'a'`, errors.E3001},
		{"at 5 0", errors.E3001},
		{"len 5", errors.E3001},
		{`at "hi"`, errors.E3005},
		{"len", errors.E3005},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := run(t, tt.source)
			requireRuntimeCode(t, err, tt.code)
		})
	}
}

func TestTypes(t *testing.T) {
	tests := []struct {
		source string
		want   object.Object
	}{
		{"type 5", object.NewTypeTag(object.INT)},
		{`type "x"`, object.NewTypeTag(object.STRING)},
		{"type type 5", object.NewTypeTag(object.TYPE)},
		{"conv string 42", object.NewString("42")},
		{`conv int "17"`, object.NewInt(17)},
		{`conv bool "TRUE"`, object.True},
		{"conv bool 0", object.False},
		{"conv char 65", object.NewChar('A')},
		{"conv int 'A'", object.NewInt(65)},
		{"conv string TRUE", object.NewString("TRUE")},
		{"conv string type 1", object.NewString("int")},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result, err := run(t, tt.source)
			require.Nil(t, err)
			require.Equal(t, tt.want, result)
		})
	}
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		source string
		code   errors.ErrorCode
	}{
		{`conv int "abc"`, errors.E3009},
		{`conv int "99999999999"`, errors.E3009},
		{`conv char ""`, errors.E3009},
		{`conv bool "yes"`, errors.E3009},
		{"conv int type 'a'", errors.E3009},
		{"conv 5 5", errors.E3001},
		{"conv int", errors.E3005},
		{"type", errors.E3005},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := run(t, tt.source)
			requireRuntimeCode(t, err, tt.code)
		})
	}
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	machine := New(WithOutput(&out))
	ctx := context.Background()

	require.Nil(t, machine.Run(ctx, compile(t, `println "hi"`)))
	require.Equal(t, "hi\n", out.String())
	require.Len(t, machine.Stack(), 1)

	out.Reset()
	require.Nil(t, machine.Run(ctx, compile(t, "print_p 42\nprint_p TRUE\nprint_p 'c'\nprintln_p type 1")))
	require.Equal(t, "42TRUEcint\n", out.String())
	require.Len(t, machine.Stack(), 1)
}

func TestRead(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		source string
		want   object.Object
	}{
		{"line", "hello world\n", "read", object.NewString("hello world")},
		{"crlf", "hello\r\n", "read", object.NewString("hello")},
		{"no terminator", "last", "read", object.NewString("last")},
		{"empty line", "\n", "read", object.NewString("")},
		{"int", "42\n", "readint", object.NewInt(42)},
		{"negative int", "-8\n", "readint", object.NewInt(-8)},
		{"padded int", " 7 \r\n", "readint", object.NewInt(7)},
		{"two lines", "1\n2\n", "add readint readint", object.NewInt(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := run(t, tt.source, WithInput(strings.NewReader(tt.input)))
			require.Nil(t, err)
			require.Equal(t, tt.want, result)
		})
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		source string
		code   errors.ErrorCode
	}{
		{"not a number", "abc\n", "readint", errors.E3006},
		{"trailing text", "12abc\n", "readint", errors.E3006},
		{"out of range", "99999999999\n", "readint", errors.E3007},
		{"end of input", "", "read", errors.E3010},
		{"end of input int", "", "readint", errors.E3010},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.source, WithInput(strings.NewReader(tt.input)))
			requireRuntimeCode(t, err, tt.code)
		})
	}
}

func TestRuntimeErrorDetails(t *testing.T) {
	program, err := compiler.Compile("set x 0\ndiv x 10", &compiler.Config{Filename: "calc.stax"})
	require.Nil(t, err)

	_, err = Run(context.Background(), program)
	runtimeErr := requireRuntimeCode(t, err, errors.E3002)
	require.Equal(t, "DIV", runtimeErr.Op)
	require.Equal(t, 4, runtimeErr.IP)
	require.Equal(t, 2, runtimeErr.Location.Line)
	require.Equal(t, "calc.stax", runtimeErr.Location.Filename)
	require.Equal(t, "div x 10", runtimeErr.Location.Source)
	require.Equal(t, "runtime error: division by zero (op DIV, line 2)", runtimeErr.Error())
}

func TestRuntimeErrorStack(t *testing.T) {
	_, err := run(t, "call f\nf: pop")
	runtimeErr := requireRuntimeCode(t, err, errors.E3005)
	require.Len(t, runtimeErr.Stack, 1)
	require.Equal(t, 0, runtimeErr.Stack[0].Address)
	require.Equal(t, 1, runtimeErr.Stack[0].Location.Line)
}

func TestTraceLogging(t *testing.T) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer zerolog.SetGlobalLevel(prev)

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	_, err := run(t, "add 1 2", WithLogger(logger))
	require.Nil(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[2], `"instr":"ADD"`)
	require.Contains(t, lines[2], `"message":"dispatch"`)
}

func TestAlreadyRunning(t *testing.T) {
	machine := New()
	machine.running = true
	err := machine.Run(context.Background(), compile(t, "push 1"))
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "already running")
	machine.running = false

	require.NotNil(t, machine.Run(context.Background(), nil))
}
