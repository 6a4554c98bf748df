// Package stax compiles and runs programs written in the stax stack
// language.
//
// Eval runs a whole program once:
//
//	result, err := stax.Eval(ctx, "add 5 10")
//
// An Interpreter keeps its stack and variables between calls, which is what
// a REPL needs:
//
//	interp, _ := stax.New()
//	interp.RunStatement(ctx, "set x 10")
//	result, _ := interp.RunStatement(ctx, "mul x 2")
package stax

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/compiler"
	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/vm"
)

// Option configures compilation or execution.
type Option func(*options)

type options struct {
	filename             string
	input                io.Reader
	output               io.Writer
	logger               zerolog.Logger
	observer             vm.Observer
	maxStackDepth        int
	contextCheckInterval *int
}

func collectOptions(opts ...Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) compilerConfig() *compiler.Config {
	logger := o.logger
	return &compiler.Config{
		Filename: o.filename,
		Logger:   &logger,
	}
}

func (o *options) vmOpts() []vm.Option {
	opts := []vm.Option{vm.WithLogger(o.logger)}
	if o.input != nil {
		opts = append(opts, vm.WithInput(o.input))
	}
	if o.output != nil {
		opts = append(opts, vm.WithOutput(o.output))
	}
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	if o.maxStackDepth > 0 {
		opts = append(opts, vm.WithMaxStackDepth(o.maxStackDepth))
	}
	if o.contextCheckInterval != nil {
		opts = append(opts, vm.WithContextCheckInterval(*o.contextCheckInterval))
	}
	return opts
}

// WithFilename sets the filename for the source code being compiled.
// This is used in error messages.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithInput sets the reader consumed by read and readint. Defaults to
// os.Stdin.
func WithInput(r io.Reader) Option {
	return func(o *options) {
		o.input = r
	}
}

// WithOutput sets the writer used by print and println. Defaults to
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithLogger sets the logger passed to the compiler and the VM.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver sets an observer for VM execution events.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithMaxStackDepth bounds the value and return-address stacks.
func WithMaxStackDepth(depth int) Option {
	return func(o *options) {
		o.maxStackDepth = depth
	}
}

// WithContextCheckInterval sets how many instructions run between checks
// for context cancellation.
func WithContextCheckInterval(interval int) Option {
	return func(o *options) {
		o.contextCheckInterval = &interval
	}
}

// Compile tokenizes and compiles source code into a program.
// The returned Program is immutable and safe for concurrent use.
func Compile(source string, opts ...Option) (*bytecode.Program, error) {
	o := collectOptions(opts...)
	return compiler.Compile(source, o.compilerConfig())
}

// Run executes a compiled program on a fresh VM and returns the value left
// on top of the stack, or object.Nil.
func Run(ctx context.Context, program *bytecode.Program, opts ...Option) (object.Object, error) {
	o := collectOptions(opts...)
	return vm.Run(ctx, program, o.vmOpts()...)
}

// Eval compiles and runs source code on a fresh Interpreter. The final top
// of stack value is returned, or object.Nil if the stack ends empty.
func Eval(ctx context.Context, source string, opts ...Option) (object.Object, error) {
	interp, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return interp.RunProgram(ctx, source)
}
