package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stax"
	"github.com/deepnoodle-ai/stax/object"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepl(cmd.Context(), stdStreams(), isTerminalIO())
	},
}

const historyFile = "~/.stax_history"

var (
	promptColor = color.New(color.FgHiYellow, color.Bold)
	intColor    = color.New(color.FgYellow)
	stringColor = color.New(color.FgGreen)
	boolColor   = color.New(color.FgMagenta)
	typeColor   = color.New(color.FgCyan)
)

// repl runs statements one line at a time against a single Interpreter, so
// variables and the stack persist between lines. Faults are reported and
// the session continues.
type repl struct {
	ctx         context.Context
	interp      *stax.Interpreter
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	colored     bool
	historyPath string
	history     []string
	showTiming  bool
}

func runRepl(ctx context.Context, s streams, interactive bool) error {
	r, err := newRepl(ctx, s, interactive)
	if err != nil {
		return err
	}
	if interactive {
		r.history, r.historyPath = loadHistory()
		fmt.Fprintf(r.out, "stax %s\n%s\n", version, muted("Type :help for commands"))
	}
	return r.loop()
}

func newRepl(ctx context.Context, s streams, interactive bool) (*repl, error) {
	opts, err := getStaxOptions(s.err)
	if err != nil {
		return nil, err
	}
	// Statements and read/readint share one buffered reader, so a read
	// consumes the lines following the statement.
	in := bufio.NewReader(s.in)
	opts = append(opts, stax.WithInput(in), stax.WithOutput(s.out))
	interp, err := stax.New(opts...)
	if err != nil {
		return nil, err
	}
	return &repl{
		ctx:         ctx,
		interp:      interp,
		in:          in,
		out:         s.out,
		interactive: interactive,
		colored:     !color.NoColor,
	}, nil
}

func (r *repl) loop() error {
	for {
		if r.interactive {
			fmt.Fprint(r.out, promptColor.Sprint("stax> "))
		}
		line, err := r.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if line == "" && err == io.EOF {
			if r.interactive {
				fmt.Fprintln(r.out)
			}
			return nil
		}
		if quit := r.handleLine(line); quit {
			return nil
		}
		if err == io.EOF {
			return nil
		}
	}
}

// handleLine runs one line of input and reports whether the session should
// end.
func (r *repl) handleLine(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}
	if strings.HasPrefix(input, ":") {
		return r.handleCommand(input)
	}
	r.addHistory(input)

	start := time.Now()
	result, err := r.interp.RunStatement(r.ctx, input)
	elapsed := time.Since(start)
	if err != nil {
		reportError(r.out, err, r.colored)
	} else if result != object.Nil {
		fmt.Fprintln(r.out, formatValue(result))
	}
	if r.showTiming {
		fmt.Fprintln(r.out, muted(elapsed.String()))
	}
	return false
}

func (r *repl) handleCommand(input string) bool {
	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case ":help", ":h", ":?":
		fmt.Fprint(r.out, replHelp)
	case ":stack", ":s":
		stack := r.interp.Stack()
		if len(stack) == 0 {
			fmt.Fprintln(r.out, muted("  (empty)"))
		}
		for i := len(stack) - 1; i >= 0; i-- {
			fmt.Fprintf(r.out, "  %s %s\n", muted(fmt.Sprintf("%3d", i)), formatValue(stack[i]))
		}
	case ":vars", ":v":
		names := r.interp.Variables()
		if len(names) == 0 {
			fmt.Fprintln(r.out, muted("  (no variables)"))
		}
		for _, name := range names {
			value, err := r.interp.Get(name)
			if err != nil {
				continue
			}
			fmt.Fprintf(r.out, "  %s = %s\n", bold(name), formatValue(value))
		}
	case ":reset":
		if err := r.interp.Reset(); err != nil {
			reportError(r.out, err, r.colored)
			return false
		}
		fmt.Fprintln(r.out, muted("  Interpreter reset"))
	case ":history":
		for i, entry := range r.history {
			fmt.Fprintf(r.out, "  %s %s\n", muted(fmt.Sprintf("%3d", i+1)), entry)
		}
	case ":timing":
		r.showTiming = !r.showTiming
		if r.showTiming {
			fmt.Fprintln(r.out, muted("  Timing enabled"))
		} else {
			fmt.Fprintln(r.out, muted("  Timing disabled"))
		}
	case ":exit", ":quit", ":q":
		return true
	default:
		fmt.Fprintln(r.out, red(fmt.Sprintf("  Unknown command: %s", parts[0])))
	}
	return false
}

const replHelp = `
  :help, :h, :?    Show this help
  :stack, :s       Show the value stack, top first
  :vars, :v        Show variables and their values
  :reset           Clear the stack, variables and declarations
  :history         Show statements entered this session
  :timing          Toggle execution timing
  :exit, :quit     Exit the REPL

`

// formatValue renders a value the way it would be written in source.
func formatValue(obj object.Object) string {
	switch obj := obj.(type) {
	case *object.Int:
		return intColor.Sprint(obj.Inspect())
	case *object.String:
		return stringColor.Sprintf("%q", obj.Value())
	case *object.Char:
		return stringColor.Sprintf("'%s'", obj.Inspect())
	case *object.Bool:
		return boolColor.Sprint(obj.Inspect())
	case *object.TypeTag:
		return typeColor.Sprint(obj.Inspect())
	default:
		return obj.Inspect()
	}
}

func (r *repl) addHistory(line string) {
	r.history = append(r.history, line)
	appendToHistory(r.historyPath, line)
}

func loadHistory() ([]string, string) {
	historyPath, err := homedir.Expand(historyFile)
	if err != nil {
		return nil, ""
	}
	data, err := os.ReadFile(historyPath)
	if err != nil {
		return nil, historyPath
	}
	lines := strings.Split(string(data), "\n")
	history := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			history = append(history, line)
		}
	}
	return history, historyPath
}

func appendToHistory(path, line string) {
	if path == "" || line == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	f.WriteString(line + "\n")
}
