package vm

import (
	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/op"
)

// StepMode controls when OnStep callbacks are triggered.
type StepMode uint8

const (
	// StepAll calls OnStep for every instruction.
	// Use for: detailed tracing, single-step debugging.
	StepAll StepMode = iota

	// StepNone never calls OnStep.
	// Use for: observers that only need Call/Return events.
	StepNone

	// StepSampled calls OnStep every N instructions.
	StepSampled

	// StepOnLine calls OnStep when the source line changes.
	// Use for: line coverage, line-level breakpoints.
	StepOnLine
)

// ObserverConfig specifies what events an observer wants to receive.
// Use NewObserverConfig() to create configs with safe defaults.
type ObserverConfig struct {
	// StepMode controls OnStep callback frequency.
	StepMode StepMode

	// SampleInterval is the number of instructions between OnStep calls
	// when StepMode is StepSampled. Values <= 0 are treated as 1.
	SampleInterval int

	// ObserveCalls enables OnCall callbacks.
	ObserveCalls bool

	// ObserveReturns enables OnReturn callbacks.
	ObserveReturns bool
}

// NewObserverConfig creates a config with safe defaults.
// ObserveCalls and ObserveReturns default to true.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:       mode,
		SampleInterval: 1000,
		ObserveCalls:   true,
		ObserveReturns: true,
	}
}

// NormalizeConfig validates and clamps config values.
func NormalizeConfig(cfg ObserverConfig) ObserverConfig {
	if cfg.StepMode == StepSampled && cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 1
	}
	return cfg
}

// Observer receives VM execution events. It is the hook used by tracers,
// instruction counters and the single-step debugger.
//
// Implementations can embed NoOpObserver and override only the methods
// they need. Methods are called synchronously on the VM's goroutine;
// returning false from any of them halts execution with an E3012 error.
type Observer interface {
	// Config returns the observer's configuration. It is read once at the
	// start of each run.
	Config() ObserverConfig

	// OnStep is called before an instruction executes.
	OnStep(event StepEvent) bool

	// OnCall is called after a call instruction pushed its return address.
	OnCall(event CallEvent) bool

	// OnReturn is called when ret pops a return address, or restarts the
	// program because the return stack is empty.
	OnReturn(event ReturnEvent) bool
}

// StepEvent describes one instruction about to execute.
type StepEvent struct {
	// IP is the index of the instruction.
	IP int

	// Opcode is the operation being executed.
	Opcode op.Code

	// OpcodeName is the human-readable name of the opcode.
	OpcodeName string

	// Instruction is the full instruction, operand included.
	Instruction bytecode.Instruction

	// Location is the source location of the instruction.
	Location bytecode.SourceLocation

	// StackDepth is the current depth of the value stack.
	StackDepth int

	// CallDepth is the current depth of the return-address stack.
	CallDepth int
}

// CallEvent describes a call instruction.
type CallEvent struct {
	// Label is the name of the label at the call target, if known.
	Label string

	// Target is the instruction index being called.
	Target int

	// ReturnAddress is the index of the call instruction.
	ReturnAddress int

	// Location is the source location of the call site.
	Location bytecode.SourceLocation

	// CallDepth is the return-address stack depth after the call.
	CallDepth int
}

// ReturnEvent describes a ret instruction.
type ReturnEvent struct {
	// ReturnAddress is the popped address. It is -1 when the return stack
	// was empty and execution restarts at instruction 0.
	ReturnAddress int

	// Restart is true when the program restarts from the beginning.
	Restart bool

	// Location is the source location of the ret instruction.
	Location bytecode.SourceLocation

	// CallDepth is the return-address stack depth after returning.
	CallDepth int
}

// NoOpObserver is an Observer implementation that does nothing.
// It uses StepAll with calls and returns enabled.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (NoOpObserver) OnStep(StepEvent) bool     { return true }
func (NoOpObserver) OnCall(CallEvent) bool     { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool { return true }

// Ensure NoOpObserver implements Observer.
var _ Observer = NoOpObserver{}

// stepFilter decides which instructions are reported to OnStep.
type stepFilter struct {
	cfg      ObserverConfig
	count    int
	lastLine int
}

func newStepFilter(cfg ObserverConfig) *stepFilter {
	return &stepFilter{cfg: NormalizeConfig(cfg), lastLine: -1}
}

func (f *stepFilter) want(loc bytecode.SourceLocation) bool {
	switch f.cfg.StepMode {
	case StepAll:
		return true
	case StepSampled:
		f.count++
		if f.count >= f.cfg.SampleInterval {
			f.count = 0
			return true
		}
		return false
	case StepOnLine:
		if loc.Line != f.lastLine {
			f.lastLine = loc.Line
			return true
		}
		return false
	default:
		return false
	}
}
