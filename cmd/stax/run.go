package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/stax"
)

// streams are the standard streams a command reads and writes. Tests
// replace them with buffers.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func stdStreams() streams {
	return streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if shouldRunRepl(cmd, args) {
		return runRepl(ctx, stdStreams(), true)
	}
	src, err := getStaxSource(cmd, args, os.Stdin)
	if err != nil {
		return err
	}
	return runSource(ctx, stdStreams(), src, runSettings{
		format: viper.GetString("output"),
		timing: viper.GetBool("timing"),
		color:  useColor(os.Stderr),
	})
}

type runSettings struct {
	format string
	timing bool
	color  bool
}

// runSource executes a batch program. Faults are reported to s.err and
// returned, so the process exits non-zero.
func runSource(ctx context.Context, s streams, src *source, settings runSettings) error {
	opts, err := getStaxOptions(s.err)
	if err != nil {
		return err
	}
	program, err := src.compile(opts...)
	if err != nil {
		return reportError(s.err, err, settings.color)
	}
	// Code read with --stdin has already consumed standard input.
	opts = append(opts, stax.WithInput(s.in), stax.WithOutput(s.out))

	interp, err := stax.New(opts...)
	if err != nil {
		return err
	}
	start := time.Now()
	result, err := interp.RunCompiled(ctx, program)
	if err != nil {
		return reportError(s.err, err, settings.color)
	}
	dt := time.Since(start)

	output, err := getOutput(result, settings.format, settings.color)
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintln(s.out, output)
	}
	if settings.timing {
		fmt.Fprintf(s.err, "%v\n", dt)
	}
	return nil
}
