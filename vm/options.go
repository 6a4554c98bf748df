package vm

import (
	"bufio"
	"io"

	"github.com/rs/zerolog"
)

// Option is a configuration function for a Virtual Machine.
type Option func(*VirtualMachine)

// WithInput sets the reader used by the read and readint instructions.
// The default is os.Stdin.
func WithInput(r io.Reader) Option {
	return func(vm *VirtualMachine) {
		vm.input = bufio.NewReader(r)
	}
}

// WithOutput sets the writer used by print and println.
// The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(vm *VirtualMachine) {
		vm.output = w
	}
}

// WithLogger sets the logger. Every dispatched instruction is logged at
// trace level.
func WithLogger(logger zerolog.Logger) Option {
	return func(vm *VirtualMachine) {
		vm.logger = logger
	}
}

// WithMaxStackDepth bounds both the value stack and the return-address
// stack. Values <= 0 select DefaultMaxStackDepth.
func WithMaxStackDepth(depth int) Option {
	return func(vm *VirtualMachine) {
		if depth <= 0 {
			depth = DefaultMaxStackDepth
		}
		vm.maxStackDepth = depth
	}
}

// WithContextCheckInterval sets how often the VM checks ctx.Done() during
// execution. The interval is specified in number of instructions. A value of 0
// disables deterministic checking, relying only on the background goroutine
// that monitors the context. The default is DefaultContextCheckInterval (1000).
func WithContextCheckInterval(interval int) Option {
	return func(vm *VirtualMachine) {
		vm.contextCheckInterval = interval
	}
}

// WithObserver sets an observer for VM execution events.
//
// Observer methods are called synchronously during execution, so
// implementations should be fast. Returning false from any observer
// method halts execution immediately.
func WithObserver(observer Observer) Option {
	return func(vm *VirtualMachine) {
		vm.observer = observer
	}
}
