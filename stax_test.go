package stax

import (
	"bytes"
	"context"
	goerrors "errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/errors"
	"github.com/deepnoodle-ai/stax/object"
)

const calcProgram = "set foo 10\nmul foo 2\nset bar\nsub 5 bar"

func newInterpreter(t *testing.T, opts ...Option) *Interpreter {
	t.Helper()
	opts = append([]Option{WithOutput(&bytes.Buffer{}), WithInput(strings.NewReader(""))}, opts...)
	interp, err := New(opts...)
	require.Nil(t, err)
	return interp
}

func requireCompileCode(t *testing.T, err error, code errors.ErrorCode) *errors.CompileError {
	t.Helper()
	var compileErr *errors.CompileError
	require.True(t, goerrors.As(err, &compileErr), "expected a compile error, got %T: %v", err, err)
	require.Equal(t, code, compileErr.Code, compileErr.Error())
	return compileErr
}

func requireRuntimeCode(t *testing.T, err error, code errors.ErrorCode) *errors.RuntimeError {
	t.Helper()
	var runtimeErr *errors.RuntimeError
	require.True(t, goerrors.As(err, &runtimeErr), "expected a runtime error, got %T: %v", err, err)
	require.Equal(t, code, runtimeErr.Code, runtimeErr.Error())
	return runtimeErr
}

func TestEval(t *testing.T) {
	result, err := Eval(context.Background(), calcProgram)
	require.Nil(t, err)
	require.Equal(t, object.NewInt(15), result)
}

func TestEvalEmptyStack(t *testing.T) {
	result, err := Eval(context.Background(), "set x 1")
	require.Nil(t, err)
	require.Equal(t, object.Nil, result)

	result, err = Eval(context.Background(), "")
	require.Nil(t, err)
	require.Equal(t, object.Nil, result)
}

func TestRunProgramConsumesResult(t *testing.T) {
	interp := newInterpreter(t)
	ctx := context.Background()

	result, err := interp.RunProgram(ctx, calcProgram)
	require.Nil(t, err)
	require.Equal(t, object.NewInt(15), result)
	require.Empty(t, interp.Stack())

	_, err = interp.RunStatement(ctx, "push 1")
	require.Nil(t, err)
	result, err = interp.RunProgram(ctx, "push 2")
	require.Nil(t, err)
	require.Equal(t, object.NewInt(2), result)
	require.Equal(t, []object.Object{object.NewInt(1)}, interp.Stack())
}

func TestRunStatementPersistence(t *testing.T) {
	interp := newInterpreter(t)
	ctx := context.Background()

	result, err := interp.RunStatement(ctx, "set x 10")
	require.Nil(t, err)
	require.Equal(t, object.Nil, result)

	result, err = interp.RunStatement(ctx, "mul x 2")
	require.Nil(t, err)
	require.Equal(t, object.NewInt(20), result)

	result, err = interp.RunStatement(ctx, "add 1")
	require.Nil(t, err)
	require.Equal(t, object.NewInt(21), result)
	require.Len(t, interp.Stack(), 1)

	value, err := interp.Get("x")
	require.Nil(t, err)
	require.Equal(t, object.NewInt(10), value)
	require.Equal(t, []string{"x"}, interp.Variables())
}

func TestStatementLabelsAreIndependent(t *testing.T) {
	interp := newInterpreter(t)
	ctx := context.Background()

	_, err := interp.RunStatement(ctx, "top: push 1")
	require.Nil(t, err)
	result, err := interp.RunStatement(ctx, "top: push 2")
	require.Nil(t, err)
	require.Equal(t, object.NewInt(2), result)

	_, err = interp.RunStatement(ctx, "j top")
	requireCompileCode(t, err, errors.E2004)
}

func TestCompileErrorRollsBackDeclarations(t *testing.T) {
	interp := newInterpreter(t)
	ctx := context.Background()

	_, err := interp.RunStatement(ctx, "set y get nope")
	requireCompileCode(t, err, errors.E2001)
	require.NotContains(t, interp.Declared(), "y")

	_, err = interp.RunStatement(ctx, "get y")
	requireCompileCode(t, err, errors.E2001)

	_, err = interp.RunProgram(ctx, "set z 1\nj missing")
	requireCompileCode(t, err, errors.E2004)
	require.NotContains(t, interp.Declared(), "z")
	require.Empty(t, interp.Variables())
}

func TestRuntimeFaultKeepsInterpreterUsable(t *testing.T) {
	interp := newInterpreter(t)
	ctx := context.Background()

	_, err := interp.RunStatement(ctx, "div 0 1")
	requireRuntimeCode(t, err, errors.E3002)

	result, err := interp.RunStatement(ctx, "push 5")
	require.Nil(t, err)
	require.Equal(t, object.NewInt(5), result)
}

func TestReset(t *testing.T) {
	interp := newInterpreter(t)
	ctx := context.Background()

	_, err := interp.RunStatement(ctx, "set x 1")
	require.Nil(t, err)
	_, err = interp.RunStatement(ctx, "push 2")
	require.Nil(t, err)

	require.Nil(t, interp.Reset())
	require.Empty(t, interp.Stack())
	require.Empty(t, interp.Variables())
	require.Empty(t, interp.Declared())

	_, err = interp.RunStatement(ctx, "get x")
	requireCompileCode(t, err, errors.E2001)
}

func TestIndependentInterpreters(t *testing.T) {
	a := newInterpreter(t)
	b := newInterpreter(t)
	ctx := context.Background()

	_, err := a.RunStatement(ctx, "set shared 1")
	require.Nil(t, err)
	_, err = b.RunStatement(ctx, "get shared")
	requireCompileCode(t, err, errors.E2001)
	require.NotEqual(t, a.ID(), b.ID())
}

func TestInputOutput(t *testing.T) {
	var out bytes.Buffer
	result, err := Eval(context.Background(), `println "hi"`, WithOutput(&out))
	require.Nil(t, err)
	require.Equal(t, "hi\n", out.String())
	require.Equal(t, object.NewString("hi"), result)

	result, err = Eval(context.Background(), "add readint readint", WithInput(strings.NewReader("2\n3\n")))
	require.Nil(t, err)
	require.Equal(t, object.NewInt(5), result)
}

func TestCompiledImage(t *testing.T) {
	program, err := Compile(calcProgram, WithFilename("calc.stax"))
	require.Nil(t, err)

	image, err := bytecode.Marshal(program)
	require.Nil(t, err)
	loaded, err := bytecode.Unmarshal(image)
	require.Nil(t, err)
	require.Equal(t, "calc.stax", loaded.Filename())

	interp := newInterpreter(t)
	result, err := interp.RunCompiled(context.Background(), loaded)
	require.Nil(t, err)
	require.Equal(t, object.NewInt(15), result)

	result, err = Run(context.Background(), loaded)
	require.Nil(t, err)
	require.Equal(t, object.NewInt(15), result)
}

func TestCompileErrorFilename(t *testing.T) {
	_, err := Compile("get nope", WithFilename("a.stax"))
	compileErr := requireCompileCode(t, err, errors.E2001)
	require.Equal(t, "a.stax", compileErr.Filename)
	require.Equal(t, 1, compileErr.Line)
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Eval(ctx, "set x 0\nret", WithContextCheckInterval(1))
	requireRuntimeCode(t, err, errors.E3012)
	require.True(t, goerrors.Is(err, context.Canceled))
}

func TestMaxStackDepth(t *testing.T) {
	_, err := Eval(context.Background(), "dup dup 1", WithMaxStackDepth(2))
	requireRuntimeCode(t, err, errors.E3011)
}

func TestLoggerTagsInterpreter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	interp := newInterpreter(t, WithLogger(logger))

	_, err := interp.RunProgram(context.Background(), "add 1 2")
	require.Nil(t, err)
	require.Contains(t, buf.String(), `"interpreter":"`+interp.ID().String()+`"`)
	require.Contains(t, buf.String(), `"message":"compiled program"`)
}
