// Package vm provides a VirtualMachine that executes compiled stax programs.
package vm

import (
	"bufio"
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/errors"
	"github.com/deepnoodle-ai/stax/object"
)

const (
	// DefaultMaxStackDepth bounds the value and return-address stacks.
	DefaultMaxStackDepth = 65536

	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

var ErrVariableNotFound = goerrors.New("variable not found")

// VirtualMachine executes one Program at a time. The value stack and the
// variable table survive between runs, so a sequence of programs compiled
// statement by statement behaves like one long program. The return-address
// stack belongs to a single run.
type VirtualMachine struct {
	ip       int // instruction pointer
	halt     int32
	stack    []object.Object
	returns  []int
	vars     map[string]object.Object
	program  *bytecode.Program
	running  bool
	runMutex sync.Mutex

	input  *bufio.Reader
	output io.Writer
	logger zerolog.Logger

	maxStackDepth int

	// contextCheckInterval is the number of instructions between deterministic
	// checks of ctx.Done(). A value of 0 disables deterministic checking,
	// relying only on the background goroutine.
	contextCheckInterval int

	// observer receives callbacks for execution events. If nil, no
	// callbacks are made.
	observer Observer
	steps    *stepFilter
	obsCfg   ObserverConfig
}

// New creates a new Virtual Machine.
func New(options ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		vars:                 map[string]object.Object{},
		input:                bufio.NewReader(os.Stdin),
		output:               os.Stdout,
		logger:               zerolog.Nop(),
		maxStackDepth:        DefaultMaxStackDepth,
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(vm)
	}
	return vm
}

func (vm *VirtualMachine) start(ctx context.Context, program *bytecode.Program) (func(), error) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return nil, fmt.Errorf("vm is already running")
	}
	vm.running = true
	vm.program = program
	vm.ip = 0
	vm.returns = vm.returns[:0]
	if vm.observer != nil {
		vm.obsCfg = vm.observer.Config()
		vm.steps = newStepFilter(vm.obsCfg)
	}
	// Halt execution when the context is cancelled
	atomic.StoreInt32(&vm.halt, 0)
	done := make(chan struct{})
	exited := make(chan struct{})
	if doneChan := ctx.Done(); doneChan != nil {
		go func() {
			defer close(exited)
			select {
			case <-doneChan:
				atomic.StoreInt32(&vm.halt, 1)
			case <-done:
			}
		}()
	} else {
		close(exited)
	}
	return func() {
		close(done)
		<-exited
	}, nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	vm.running = false
}

// Run executes the program from instruction 0 until the instruction
// pointer moves past the last instruction. The value stack and variables
// left by earlier runs are visible to the program.
func (vm *VirtualMachine) Run(ctx context.Context, program *bytecode.Program) (err error) {
	if program == nil {
		return fmt.Errorf("no program to run")
	}
	// Set up some guarantees:
	// 1. It is an error to call Run on a VM that is already running
	// 2. The running flag will always be set to false when Run returns
	// 3. Any panics are translated to errors and the VM is stopped
	release, err := vm.start(ctx, program)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		release()
		vm.stop()
	}()
	return vm.eval(ctx)
}

// Reset clears the stacks, the variable table and the loaded program.
func (vm *VirtualMachine) Reset() error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return fmt.Errorf("vm is running")
	}
	vm.ip = 0
	vm.stack = nil
	vm.returns = nil
	vm.vars = map[string]object.Object{}
	vm.program = nil
	return nil
}

func (vm *VirtualMachine) eval(ctx context.Context) error {
	// Instruction counter for deterministic context checking
	var instructionCount int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()
	count := vm.program.InstructionCount()

	for vm.ip < count {

		if atomic.LoadInt32(&vm.halt) == 1 {
			return vm.haltError(ctx)
		}

		// Deterministic check of ctx.Done() every N instructions.
		if checkInterval > 0 && doneChan != nil {
			instructionCount++
			if instructionCount >= checkInterval {
				instructionCount = 0
				select {
				case <-doneChan:
					atomic.StoreInt32(&vm.halt, 1)
					return vm.haltError(ctx)
				default:
				}
			}
		}

		instr := vm.program.InstructionAt(vm.ip)

		if vm.observer != nil && vm.steps.want(vm.program.LocationAt(vm.ip)) {
			event := StepEvent{
				IP:          vm.ip,
				Opcode:      instr.Op,
				OpcodeName:  instr.Op.String(),
				Instruction: instr,
				Location:    vm.program.LocationAt(vm.ip),
				StackDepth:  len(vm.stack),
				CallDepth:   len(vm.returns),
			}
			if !vm.observer.OnStep(event) {
				return vm.runtimeError(errors.E3012, "execution halted by observer")
			}
		}

		if e := vm.logger.Trace(); e.Enabled() {
			e.Int("ip", vm.ip).
				Stringer("instr", instr).
				Int("stack", len(vm.stack)).
				Msg("dispatch")
		}

		if err := vm.dispatch(instr); err != nil {
			return err
		}
		vm.ip++
	}
	return nil
}

func (vm *VirtualMachine) haltError(ctx context.Context) error {
	cause := ctx.Err()
	if cause == nil {
		cause = context.Canceled
	}
	return vm.runtimeError(errors.E3012, "execution halted: %v", cause).WithCause(cause)
}

// TOS returns the top-of-stack object if there is one, without modifying
// the stack. Returns false if the stack is empty or the VM is running.
func (vm *VirtualMachine) TOS() (object.Object, bool) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if !vm.running && len(vm.stack) > 0 {
		return vm.stack[len(vm.stack)-1], true
	}
	return nil, false
}

// Pop removes and returns the top-of-stack object. Returns false if the
// stack is empty or the VM is running.
func (vm *VirtualMachine) Pop() (object.Object, bool) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running || len(vm.stack) == 0 {
		return nil, false
	}
	return vm.pop(), true
}

// Stack returns a copy of the value stack, bottom first.
func (vm *VirtualMachine) Stack() []object.Object {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	result := make([]object.Object, len(vm.stack))
	copy(result, vm.stack)
	return result
}

// Get returns the value stored in a variable.
func (vm *VirtualMachine) Get(name string) (object.Object, error) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	value, ok := vm.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrVariableNotFound, name)
	}
	return value, nil
}

// Variables returns the sorted names of all stored variables.
func (vm *VirtualMachine) Variables() []string {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	names := make([]string, 0, len(vm.vars))
	for name := range vm.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (vm *VirtualMachine) push(obj object.Object) error {
	if len(vm.stack) >= vm.maxStackDepth {
		return vm.runtimeError(errors.E3011, "stack overflow (depth %d)", vm.maxStackDepth)
	}
	vm.stack = append(vm.stack, obj)
	return nil
}

func (vm *VirtualMachine) pop() object.Object {
	last := len(vm.stack) - 1
	obj := vm.stack[last]
	vm.stack[last] = nil
	vm.stack = vm.stack[:last]
	return obj
}

func (vm *VirtualMachine) top() object.Object {
	return vm.stack[len(vm.stack)-1]
}

// require checks that the stack holds at least n values.
func (vm *VirtualMachine) require(n int, what string) error {
	if len(vm.stack) < n {
		if n == 1 {
			return vm.runtimeError(errors.E3005, "%s requires a value on the stack", what)
		}
		return vm.runtimeError(errors.E3005, "%s requires %d values on the stack (found %d)",
			what, n, len(vm.stack))
	}
	return nil
}

// currentLocation returns the source location of the current instruction.
func (vm *VirtualMachine) currentLocation() errors.SourceLocation {
	return vm.location(vm.ip)
}

func (vm *VirtualMachine) location(ip int) errors.SourceLocation {
	if vm.program == nil {
		return errors.SourceLocation{}
	}
	loc := vm.program.LocationAt(ip)
	if loc.IsZero() {
		return errors.SourceLocation{}
	}
	return errors.SourceLocation{
		Filename: vm.program.Filename(),
		Line:     loc.Line,
		Column:   loc.Column,
		Source:   vm.program.GetSourceLine(loc.Line),
	}
}

// captureStack builds a stack trace from the pending return addresses,
// innermost call first.
func (vm *VirtualMachine) captureStack() []errors.StackFrame {
	var frames []errors.StackFrame
	for i := len(vm.returns) - 1; i >= 0; i-- {
		addr := vm.returns[i]
		frames = append(frames, errors.StackFrame{
			Address:  addr,
			Location: vm.location(addr),
		})
	}
	return frames
}

// runtimeError creates a RuntimeError with source location and stack trace.
func (vm *VirtualMachine) runtimeError(code errors.ErrorCode, format string, args ...any) *errors.RuntimeError {
	err := errors.NewRuntimeError(code, format, args...)
	err.IP = vm.ip
	if vm.program != nil && vm.ip >= 0 && vm.ip < vm.program.InstructionCount() {
		err.Op = vm.program.InstructionAt(vm.ip).Op.String()
	}
	err.Location = vm.currentLocation()
	err.Stack = vm.captureStack()
	return err
}

// objectError maps a failure reported by the object package to a runtime
// error code.
func (vm *VirtualMachine) objectError(err error) *errors.RuntimeError {
	code := errors.E3001
	switch {
	case goerrors.Is(err, object.ErrIndexOutOfRange):
		code = errors.E3003
	case goerrors.Is(err, object.ErrInvalidConversion), goerrors.Is(err, object.ErrConversionRange):
		code = errors.E3009
	}
	return vm.runtimeError(code, "%s", err.Error()).WithCause(err)
}
