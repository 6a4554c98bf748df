package vm

import (
	"context"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/object"
)

// Run the given program in a new Virtual Machine and return the value left
// on top of the stack, or object.Nil if the stack is empty.
func Run(ctx context.Context, program *bytecode.Program, options ...Option) (object.Object, error) {
	machine := New(options...)
	if err := machine.Run(ctx, program); err != nil {
		return nil, err
	}
	if result, exists := machine.TOS(); exists {
		return result, nil
	}
	return object.Nil, nil
}
