package main

import (
	"bytes"
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stax"
	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/errors"
	"github.com/deepnoodle-ai/stax/vm"
)

var stepCmd = &cobra.Command{
	Use:   "step [file]",
	Short: "Run a program one instruction at a time",
	Long: `Run a program under the single-step debugger. Before each instruction
the debugger shows it and waits for a key:

  enter, space, n   execute the next instruction
  c                 continue to the next breakpoint
  q, esc, ctrl+c    stop the program

While the program runs after c, only the quit keys are read.

Standard input is used for keys, so read and readint take their input from
the file given with --input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStepCmd,
}

func init() {
	stepCmd.Flags().StringP("code", "c", "", "Code to debug")
	stepCmd.Flags().IntSliceP("break", "b", nil, "Source lines to stop at when continuing")
	stepCmd.Flags().String("input", "", "File read by read and readint")
}

type stepCommand int

const (
	stepNext stepCommand = iota
	stepContinue
	stepQuit
)

func runStepCmd(cmd *cobra.Command, args []string) error {
	src, err := getStaxSource(cmd, args, os.Stdin)
	if err != nil {
		return err
	}
	breaks, _ := cmd.Flags().GetIntSlice("break")
	input := io.Reader(strings.NewReader(""))
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		input = bytes.NewReader(data)
	}
	// The keyboard puts the terminal in raw mode, which needs explicit
	// carriage returns.
	s := streams{in: input, out: &crlfWriter{w: os.Stdout}, err: &crlfWriter{w: os.Stderr}}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	commands := make(chan stepCommand)
	done := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		err := debug(ctx, s, src, breaks, commands)
		fmt.Fprintln(s.out, muted("(press any key to exit)"))
		errc <- err
		close(done)
	}()
	listenErr := keyboard.Listen(func(key keys.Key) (bool, error) {
		return forwardKey(key, commands, cancel, done), nil
	})
	cancel()
	close(commands)
	err = <-errc
	if listenErr != nil {
		return listenErr
	}
	return err
}

// forwardKey hands the command for key to a paused stepper and reports
// whether to stop listening. Quitting cancels the run instead of waiting
// for the stepper, which does not read commands while it continues.
func forwardKey(key keys.Key, commands chan<- stepCommand, quit context.CancelFunc, done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
	}
	command, ok := keyCommand(key)
	if !ok {
		return false
	}
	if command == stepQuit {
		quit()
		return true
	}
	select {
	case commands <- command:
	case <-done:
		return true
	default:
		// Not paused; the key is dropped.
	}
	return false
}

func keyCommand(key keys.Key) (stepCommand, bool) {
	switch key.Code {
	case keys.Enter, keys.Space, keys.Down:
		return stepNext, true
	case keys.Escape, keys.CtrlC:
		return stepQuit, true
	case keys.RuneKey:
		switch strings.ToLower(key.String()) {
		case "n", "s":
			return stepNext, true
		case "c":
			return stepContinue, true
		case "q":
			return stepQuit, true
		}
	}
	return 0, false
}

// debug runs src under a stepper fed by commands. Quitting is not an error.
func debug(ctx context.Context, s streams, src *source, breaks []int, commands <-chan stepCommand) error {
	opts, err := getStaxOptions(s.err)
	if err != nil {
		return err
	}
	program, err := src.compile(opts...)
	if err != nil {
		return reportError(s.err, err, useColor(os.Stderr))
	}
	st := newStepper(ctx, s.out, program, breaks, commands)
	opts = append(opts, stax.WithInput(s.in), stax.WithOutput(s.out), stax.WithObserver(st))
	interp, err := stax.New(opts...)
	if err != nil {
		return err
	}
	result, err := interp.RunCompiled(ctx, program)
	if err != nil {
		var runtimeErr *errors.RuntimeError
		stopped := st.quit || ctx.Err() != nil
		if stopped && goerrors.As(err, &runtimeErr) && runtimeErr.Code == errors.E3012 {
			fmt.Fprintln(s.out, muted("stopped"))
			return nil
		}
		return reportError(s.err, err, useColor(os.Stderr))
	}
	fmt.Fprintf(s.out, "%s after %d steps, result %s\n", bold("finished"), st.steps, formatValue(result))
	return nil
}

// stepper is a vm.Observer that pauses before instructions until a command
// arrives.
type stepper struct {
	ctx        context.Context
	out        io.Writer
	program    *bytecode.Program
	commands   <-chan stepCommand
	breaks     map[int]bool
	continuing bool
	line       int
	steps      int
	quit       bool
}

func newStepper(ctx context.Context, out io.Writer, program *bytecode.Program, breaks []int, commands <-chan stepCommand) *stepper {
	st := &stepper{
		ctx:      ctx,
		out:      out,
		program:  program,
		commands: commands,
		breaks:   map[int]bool{},
	}
	for _, line := range breaks {
		st.breaks[line] = true
	}
	return st
}

func (st *stepper) Config() vm.ObserverConfig {
	return vm.NewObserverConfig(vm.StepAll)
}

func (st *stepper) OnStep(event vm.StepEvent) bool {
	st.steps++
	line := event.Location.Line
	entered := line != st.line
	st.line = line
	if st.continuing && !(entered && st.breaks[line]) {
		if st.ctx.Err() != nil {
			st.quit = true
			return false
		}
		return true
	}
	st.continuing = false
	st.printStep(event)

	var command stepCommand
	select {
	case c, ok := <-st.commands:
		if !ok {
			st.quit = true
			return false
		}
		command = c
	case <-st.ctx.Done():
		st.quit = true
		return false
	}
	switch command {
	case stepContinue:
		st.continuing = true
	case stepQuit:
		st.quit = true
		return false
	}
	return true
}

func (st *stepper) printStep(event vm.StepEvent) {
	source := strings.TrimSpace(st.program.GetSourceLine(event.Location.Line))
	fmt.Fprintf(st.out, "%s %-24s %s %s\n",
		muted(fmt.Sprintf("%4d", event.IP)),
		bold(event.Instruction.String()),
		muted(fmt.Sprintf("line %d, stack %d, calls %d", event.Location.Line, event.StackDepth, event.CallDepth)),
		source)
}

func (st *stepper) OnCall(event vm.CallEvent) bool {
	if !st.continuing {
		fmt.Fprintf(st.out, "     %s %s %s\n", muted("call"), event.Label, muted(fmt.Sprintf("-> %d", event.Target)))
	}
	return true
}

func (st *stepper) OnReturn(event vm.ReturnEvent) bool {
	if st.continuing {
		return true
	}
	if event.Restart {
		fmt.Fprintf(st.out, "     %s\n", muted("ret with empty call stack, restarting at 0"))
		return true
	}
	fmt.Fprintf(st.out, "     %s\n", muted(fmt.Sprintf("ret -> %d", event.ReturnAddress+1)))
	return true
}

// crlfWriter translates line feeds for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
