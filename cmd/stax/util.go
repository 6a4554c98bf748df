package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/stax/errors"
)

var (
	red   = color.New(color.FgRed).SprintFunc()
	muted = color.New(color.FgHiBlack).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

// exitError reports a failure that has already been printed.
type exitError struct {
	err error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", red(err.Error()))
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func isTerminalIO() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func useColor(f *os.File) bool {
	return !viper.GetBool("no-color") && isTerminal(f)
}

// reportError writes a stax error with source context to w. The returned
// error tells main the failure was already reported.
func reportError(w io.Writer, err error, colored bool) error {
	fmt.Fprint(w, errors.NewFormatter(colored).FormatError(err))
	return &exitError{err: err}
}

// newLogger builds the console logger used by every command. The level is
// also applied globally, since the VM skips trace events below it.
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(lvl)
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    viper.GetBool("no-color"),
		TimeFormat: "15:04:05.000",
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
}
