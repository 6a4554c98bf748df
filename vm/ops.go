package vm

import (
	goerrors "errors"
	"io"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/errors"
	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/op"
)

// dispatch executes one instruction. Jumps leave the instruction pointer one
// before their target; the caller always advances it by one afterward.
func (vm *VirtualMachine) dispatch(instr bytecode.Instruction) error {
	switch op.GetInfo(instr.Op).Group {
	case op.GroupStack:
		return vm.stackOp(instr)
	case op.GroupArithmetic:
		return vm.arithmeticOp(instr.Op)
	case op.GroupLogic:
		return vm.logicOp(instr.Op)
	case op.GroupCompare:
		return vm.compareOp(instr.Op)
	case op.GroupControl:
		return vm.controlOp(instr)
	case op.GroupVariable:
		return vm.variableOp(instr)
	case op.GroupIO:
		return vm.ioOp(instr.Op)
	case op.GroupSequence:
		return vm.sequenceOp(instr.Op)
	case op.GroupType:
		return vm.typeOp(instr.Op)
	default:
		return vm.runtimeError(errors.E3008, "invalid opcode %d", instr.Op)
	}
}

func (vm *VirtualMachine) stackOp(instr bytecode.Instruction) error {
	switch instr.Op {
	case op.Push:
		if instr.Operand == nil {
			return vm.runtimeError(errors.E3008, "push without an operand")
		}
		return vm.push(instr.Operand)
	case op.Pop:
		if err := vm.require(1, "pop"); err != nil {
			return err
		}
		vm.pop()
	case op.Dup:
		if err := vm.require(1, "dup"); err != nil {
			return err
		}
		return vm.push(vm.top())
	case op.Swap:
		if err := vm.require(2, "swap"); err != nil {
			return err
		}
		n := len(vm.stack)
		vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]
	case op.Clear:
		clear(vm.stack)
		vm.stack = vm.stack[:0]
	case op.Size:
		return vm.push(object.NewInt(int32(len(vm.stack))))
	}
	return nil
}

func (vm *VirtualMachine) arithmeticOp(code op.Code) error {
	name := strings.ToLower(code.String())
	if err := vm.require(2, name); err != nil {
		return err
	}
	right := vm.pop()
	left := vm.pop()
	l, lok := left.(*object.Int)
	r, rok := right.(*object.Int)
	if !lok || !rok {
		return vm.runtimeError(errors.E3001, "%s requires two int operands (got %s and %s)",
			name, left.Type(), right.Type())
	}
	a, b := l.Value(), r.Value()
	var result int32
	switch code {
	case op.Add:
		result = a + b
	case op.Sub:
		result = a - b
	case op.Mul:
		result = a * b
	case op.Div:
		if b == 0 {
			return vm.runtimeError(errors.E3002, "division by zero")
		}
		result = a / b
	case op.Mod:
		if b == 0 {
			return vm.runtimeError(errors.E3002, "modulo by zero")
		}
		result = a % b
	}
	return vm.push(object.NewInt(result))
}

func (vm *VirtualMachine) logicOp(code op.Code) error {
	name := strings.ToLower(code.String())
	if code == op.Not {
		if err := vm.require(1, name); err != nil {
			return err
		}
		value, err := object.AsInt(vm.pop())
		if err != nil {
			return vm.objectError(err)
		}
		return vm.push(object.NewBool(value != 0))
	}
	if err := vm.require(2, name); err != nil {
		return err
	}
	right := vm.pop()
	left := vm.pop()
	if left.Type() != right.Type() {
		return vm.runtimeError(errors.E3001, "%s requires operands of the same type (got %s and %s)",
			name, left.Type(), right.Type())
	}
	a, err := object.AsInt(left)
	if err != nil {
		return vm.objectError(err)
	}
	b, err := object.AsInt(right)
	if err != nil {
		return vm.objectError(err)
	}
	var result int32
	switch code {
	case op.And:
		result = a & b
	case op.Or:
		result = a | b
	case op.Xor:
		result = a ^ b
	}
	value, err := object.FromInt(left.Type(), result)
	if err != nil {
		return vm.objectError(err)
	}
	return vm.push(value)
}

func (vm *VirtualMachine) compareOp(code op.Code) error {
	if err := vm.require(2, strings.ToLower(code.String())); err != nil {
		return err
	}
	right := vm.pop()
	left := vm.pop()
	switch code {
	case op.Eq:
		return vm.push(object.NewBool(object.Equal(left, right)))
	case op.Neq:
		return vm.push(object.NewBool(object.NotEqual(left, right)))
	}
	if (code == op.LessEq || code == op.GreaterEq) && object.Equal(left, right) {
		return vm.push(object.True)
	}
	var result bool
	var err error
	switch code {
	case op.Greater, op.GreaterEq:
		result, err = object.GreaterThan(left, right)
	case op.Less, op.LessEq:
		result, err = object.GreaterThan(right, left)
	}
	if err != nil {
		return vm.objectError(err)
	}
	return vm.push(object.NewBool(result))
}

func (vm *VirtualMachine) controlOp(instr bytecode.Instruction) error {
	if instr.Op == op.Ret {
		return vm.ret()
	}
	target, ok := instr.Target()
	if !ok || target < 0 || target > vm.program.InstructionCount() {
		return vm.runtimeError(errors.E3008, "%s has no resolved target", instr.Op)
	}
	switch instr.Op {
	case op.Jump:
		vm.ip = target - 1
	case op.JumpIf:
		if err := vm.require(1, "jumpif"); err != nil {
			return err
		}
		cond, err := object.AsInt(vm.pop())
		if err != nil {
			return vm.objectError(err)
		}
		if cond != 0 {
			vm.ip = target - 1
		}
	case op.Call:
		if len(vm.returns) >= vm.maxStackDepth {
			return vm.runtimeError(errors.E3011, "call depth exceeded (depth %d)", vm.maxStackDepth)
		}
		vm.returns = append(vm.returns, vm.ip)
		if vm.observer != nil && vm.obsCfg.ObserveCalls {
			event := CallEvent{
				Target:        target,
				ReturnAddress: vm.ip,
				Location:      vm.program.LocationAt(vm.ip),
				CallDepth:     len(vm.returns),
			}
			if labels := vm.program.LabelsAt(target); len(labels) > 0 {
				event.Label = labels[0]
			}
			if !vm.observer.OnCall(event) {
				return vm.runtimeError(errors.E3012, "execution halted by observer")
			}
		}
		vm.ip = target - 1
	}
	return nil
}

// ret resumes after the most recent call. With no pending call the program
// restarts from its first instruction.
func (vm *VirtualMachine) ret() error {
	addr := -1
	if n := len(vm.returns); n > 0 {
		addr = vm.returns[n-1]
		vm.returns = vm.returns[:n-1]
	}
	if vm.observer != nil && vm.obsCfg.ObserveReturns {
		event := ReturnEvent{
			ReturnAddress: addr,
			Restart:       addr < 0,
			Location:      vm.program.LocationAt(vm.ip),
			CallDepth:     len(vm.returns),
		}
		if !vm.observer.OnReturn(event) {
			return vm.runtimeError(errors.E3012, "execution halted by observer")
		}
	}
	vm.ip = addr
	return nil
}

func (vm *VirtualMachine) variableOp(instr bytecode.Instruction) error {
	name, ok := instr.Name()
	if !ok {
		return vm.runtimeError(errors.E3008, "%s without a variable name", instr.Op)
	}
	switch instr.Op {
	case op.Set:
		if err := vm.require(1, "set"); err != nil {
			return err
		}
		vm.vars[name] = vm.pop()
	case op.Get:
		value, ok := vm.vars[name]
		if !ok {
			return vm.runtimeError(errors.E3004, "variable %q is undefined", name)
		}
		return vm.push(value)
	}
	return nil
}

func (vm *VirtualMachine) ioOp(code op.Code) error {
	switch code {
	case op.Print, op.Println:
		if err := vm.require(1, strings.ToLower(code.String())); err != nil {
			return err
		}
		text := vm.top().Inspect()
		if code == op.Println {
			text += "\n"
		}
		if _, err := io.WriteString(vm.output, text); err != nil {
			return vm.runtimeError(errors.E3010, "write failed: %v", err).WithCause(err)
		}
	case op.Read:
		line, err := vm.readLine()
		if err != nil {
			return err
		}
		return vm.push(object.NewString(line))
	case op.ReadInt:
		line, err := vm.readLine()
		if err != nil {
			return err
		}
		value, err := strconv.ParseInt(strings.TrimSpace(line), 10, 32)
		if err != nil {
			if goerrors.Is(err, strconv.ErrRange) {
				return vm.runtimeError(errors.E3007, "input %q is out of range for an int", line).WithCause(err)
			}
			return vm.runtimeError(errors.E3006, "input %q is not an integer", line).WithCause(err)
		}
		return vm.push(object.NewInt(int32(value)))
	}
	return nil
}

// readLine reads one line of input without its line terminator. A final
// line without a terminator is accepted; end of input with nothing read is
// an I/O fault.
func (vm *VirtualMachine) readLine() (string, error) {
	line, err := vm.input.ReadString('\n')
	if err != nil && !(goerrors.Is(err, io.EOF) && line != "") {
		if goerrors.Is(err, io.EOF) {
			return "", vm.runtimeError(errors.E3010, "end of input").WithCause(err)
		}
		return "", vm.runtimeError(errors.E3010, "read failed: %v", err).WithCause(err)
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func (vm *VirtualMachine) sequenceOp(code op.Code) error {
	switch code {
	case op.At:
		if err := vm.require(2, "at"); err != nil {
			return err
		}
		collection := vm.pop()
		index := vm.pop()
		i, ok := index.(*object.Int)
		if !ok {
			return vm.runtimeError(errors.E3001, "index must be an int (got %s)", index.Type())
		}
		item, err := object.Index(collection, i.Value())
		if err != nil {
			return vm.objectError(err)
		}
		return vm.push(item)
	case op.Len:
		if err := vm.require(1, "len"); err != nil {
			return err
		}
		length, err := object.Len(vm.pop())
		if err != nil {
			return vm.objectError(err)
		}
		return vm.push(object.NewInt(length))
	}
	return nil
}

func (vm *VirtualMachine) typeOp(code op.Code) error {
	switch code {
	case op.Type:
		if err := vm.require(1, "type"); err != nil {
			return err
		}
		return vm.push(object.TypeOf(vm.pop()))
	case op.Convert:
		if err := vm.require(2, "conv"); err != nil {
			return err
		}
		target := vm.pop()
		value := vm.pop()
		tag, ok := target.(*object.TypeTag)
		if !ok {
			return vm.runtimeError(errors.E3001, "conv requires a type (got %s)", target.Type())
		}
		result, err := object.Convert(value, tag.Value())
		if err != nil {
			return vm.objectError(err)
		}
		return vm.push(result)
	}
	return nil
}
