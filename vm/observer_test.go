package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/stax/compiler"
	"github.com/deepnoodle-ai/stax/errors"
	"github.com/deepnoodle-ai/stax/op"
)

// TestObserver is a test observer that records events.
type TestObserver struct {
	NoOpObserver
	config  *ObserverConfig
	Steps   []StepEvent
	Calls   []CallEvent
	Returns []ReturnEvent
}

func (o *TestObserver) Config() ObserverConfig {
	if o.config != nil {
		return *o.config
	}
	return o.NoOpObserver.Config()
}

func (o *TestObserver) OnStep(event StepEvent) bool {
	o.Steps = append(o.Steps, event)
	return true
}

func (o *TestObserver) OnCall(event CallEvent) bool {
	o.Calls = append(o.Calls, event)
	return true
}

func (o *TestObserver) OnReturn(event ReturnEvent) bool {
	o.Returns = append(o.Returns, event)
	return true
}

const callProgram = `set x 21
call double
j end
double: set x mul 2 x
ret
end: push x`

func TestObserverEvents(t *testing.T) {
	observer := &TestObserver{}
	_, err := run(t, callProgram, WithObserver(observer))
	require.Nil(t, err)

	var ips []int
	for _, step := range observer.Steps {
		require.NotEmpty(t, step.OpcodeName)
		ips = append(ips, step.IP)
	}
	require.Equal(t, []int{0, 1, 2, 4, 5, 6, 7, 8, 3, 9}, ips)

	require.Len(t, observer.Calls, 1)
	call := observer.Calls[0]
	require.Equal(t, "double", call.Label)
	require.Equal(t, 4, call.Target)
	require.Equal(t, 2, call.ReturnAddress)
	require.Equal(t, 1, call.CallDepth)
	require.Equal(t, 2, call.Location.Line)

	require.Len(t, observer.Returns, 1)
	ret := observer.Returns[0]
	require.Equal(t, 2, ret.ReturnAddress)
	require.False(t, ret.Restart)
	require.Equal(t, 0, ret.CallDepth)
	require.Equal(t, 5, ret.Location.Line)
}

func TestObserverStepDetails(t *testing.T) {
	observer := &TestObserver{}
	_, err := run(t, "add 1 2", WithObserver(observer))
	require.Nil(t, err)
	require.Len(t, observer.Steps, 3)

	last := observer.Steps[2]
	require.Equal(t, op.Add, last.Opcode)
	require.Equal(t, "ADD", last.OpcodeName)
	require.Equal(t, 2, last.StackDepth)
	require.Equal(t, 0, last.CallDepth)
	require.Equal(t, 1, last.Location.Line)
}

func TestObserverRestart(t *testing.T) {
	observer := &TestObserver{}
	machine := New(WithObserver(observer))
	c := compiler.New(nil)
	ctx := context.Background()

	setup, err := c.CompileSource("set n 0")
	require.Nil(t, err)
	require.Nil(t, machine.Run(ctx, setup))

	// Two restarts, then n reaches 3 and the jump skips the ret
	program, err := c.CompileSource("set n add 1 n\nj== out 3 n\nret\nout: push n")
	require.Nil(t, err)
	require.Nil(t, machine.Run(ctx, program))
	require.Len(t, observer.Returns, 2)
	for _, ret := range observer.Returns {
		require.True(t, ret.Restart)
		require.Equal(t, -1, ret.ReturnAddress)
	}
}

func TestObserverStepModes(t *testing.T) {
	source := "set a 1\nset b 2\nset c 3"

	tests := []struct {
		name string
		cfg  ObserverConfig
		want int
	}{
		{"all", NewObserverConfig(StepAll), 6},
		{"none", NewObserverConfig(StepNone), 0},
		{"sampled", ObserverConfig{StepMode: StepSampled, SampleInterval: 2}, 3},
		{"sampled zero interval", ObserverConfig{StepMode: StepSampled}, 6},
		{"on line", NewObserverConfig(StepOnLine), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			observer := &TestObserver{config: &cfg}
			_, err := run(t, source, WithObserver(observer))
			require.Nil(t, err)
			require.Len(t, observer.Steps, tt.want)
		})
	}
}

func TestObserverCallsDisabled(t *testing.T) {
	cfg := NewObserverConfig(StepNone)
	cfg.ObserveCalls = false
	cfg.ObserveReturns = false
	observer := &TestObserver{config: &cfg}
	_, err := run(t, callProgram, WithObserver(observer))
	require.Nil(t, err)
	require.Empty(t, observer.Calls)
	require.Empty(t, observer.Returns)
}

// haltingObserver stops execution after a fixed number of steps.
type haltingObserver struct {
	NoOpObserver
	remaining int
}

func (o *haltingObserver) OnStep(StepEvent) bool {
	o.remaining--
	return o.remaining >= 0
}

func TestObserverHalts(t *testing.T) {
	_, err := run(t, "set x 0\nret", WithObserver(&haltingObserver{remaining: 50}))
	runtimeErr := requireRuntimeCode(t, err, errors.E3012)
	require.Contains(t, runtimeErr.Message, "observer")
}

func TestNormalizeConfig(t *testing.T) {
	cfg := NormalizeConfig(ObserverConfig{StepMode: StepSampled, SampleInterval: -3})
	require.Equal(t, 1, cfg.SampleInterval)

	cfg = NormalizeConfig(ObserverConfig{StepMode: StepAll})
	require.Equal(t, 0, cfg.SampleInterval)
}
