package stax

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/compiler"
	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/vm"
)

// Interpreter provides stateful execution for REPL and incremental
// evaluation. Variables and the value stack persist across calls until
// Reset. An Interpreter must not be used from multiple goroutines at once;
// independent Interpreters share no state.
type Interpreter struct {
	id       uuid.UUID
	compiler *compiler.Compiler
	machine  *vm.VirtualMachine
	logger   zerolog.Logger
}

// New creates an Interpreter with the given options.
func New(opts ...Option) (*Interpreter, error) {
	o := collectOptions(opts...)
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("interpreter id: %w", err)
	}
	o.logger = o.logger.With().Str("interpreter", id.String()).Logger()
	return &Interpreter{
		id:       id,
		compiler: compiler.New(o.compilerConfig()),
		machine:  vm.New(o.vmOpts()...),
		logger:   o.logger,
	}, nil
}

// ID returns the unique identifier of this Interpreter.
func (i *Interpreter) ID() uuid.UUID {
	return i.id
}

// RunStatement compiles one statement with its own label table and runs it.
// The stack and variables are kept, and the value on top of the stack is
// returned without being removed, or object.Nil if the stack is empty.
func (i *Interpreter) RunStatement(ctx context.Context, line string) (object.Object, error) {
	program, err := i.compiler.CompileSource(line)
	if err != nil {
		return nil, err
	}
	if err := i.run(ctx, program); err != nil {
		return nil, err
	}
	if result, ok := i.machine.TOS(); ok {
		return result, nil
	}
	return object.Nil, nil
}

// RunProgram compiles a whole program, one statement per line, and runs
// it. The final top of stack value is popped and returned, or object.Nil if
// the stack ends empty.
func (i *Interpreter) RunProgram(ctx context.Context, source string) (object.Object, error) {
	program, err := i.compiler.CompileSource(source)
	if err != nil {
		return nil, err
	}
	return i.RunCompiled(ctx, program)
}

// RunCompiled runs a program compiled earlier, for example one loaded from
// an image. Like RunProgram it pops and returns the final top of stack.
func (i *Interpreter) RunCompiled(ctx context.Context, program *bytecode.Program) (object.Object, error) {
	if err := i.run(ctx, program); err != nil {
		return nil, err
	}
	if result, ok := i.machine.Pop(); ok {
		return result, nil
	}
	return object.Nil, nil
}

func (i *Interpreter) run(ctx context.Context, program *bytecode.Program) error {
	i.logger.Debug().
		Int("instructions", program.InstructionCount()).
		Str("file", program.Filename()).
		Msg("run")
	if err := i.machine.Run(ctx, program); err != nil {
		i.logger.Debug().Err(err).Msg("run failed")
		return err
	}
	return nil
}

// Reset clears the stacks, the variables and all declared names, returning
// the Interpreter to its just-constructed state.
func (i *Interpreter) Reset() error {
	if err := i.machine.Reset(); err != nil {
		return err
	}
	i.compiler.Reset()
	return nil
}

// Stack returns a copy of the value stack, bottom first.
func (i *Interpreter) Stack() []object.Object {
	return i.machine.Stack()
}

// Get returns the value of a variable.
func (i *Interpreter) Get(name string) (object.Object, error) {
	return i.machine.Get(name)
}

// Variables returns the sorted names of all variables holding a value.
func (i *Interpreter) Variables() []string {
	return i.machine.Variables()
}

// Declared returns the sorted names of all variables the compiler knows.
// A name is declared once a set statement naming it compiles, even if the
// statement has not run.
func (i *Interpreter) Declared() []string {
	return i.compiler.Variables()
}
