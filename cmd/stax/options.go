package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/stax"
	"github.com/deepnoodle-ai/stax/bytecode"
)

// source is a program supplied on the command line, either as text or as a
// compiled image.
type source struct {
	code     string
	filename string
	image    *bytecode.Program
}

func getStaxOptions(stderr io.Writer) ([]stax.Option, error) {
	logger, err := newLogger(stderr, viper.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	opts := []stax.Option{stax.WithLogger(logger)}
	if depth := viper.GetInt("max-stack-depth"); depth > 0 {
		opts = append(opts, stax.WithMaxStackDepth(depth))
	}
	return opts, nil
}

func shouldRunRepl(cmd *cobra.Command, args []string) bool {
	if viper.GetBool("no-repl") || flagChanged(cmd, "stdin") {
		return false
	}
	if flagChanged(cmd, "code") {
		return false
	}
	if len(args) > 0 {
		return false
	}
	return isTerminalIO()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// getStaxSource determines what program is to be used. There are three
// possibilities:
// 1. --code <code>
// 2. --stdin (read code from stdin)
// 3. path as args[0], holding source code or a compiled image
func getStaxSource(cmd *cobra.Command, args []string, stdin io.Reader) (*source, error) {
	codeFlagSet := flagChanged(cmd, "code")
	stdinFlagSet := flagChanged(cmd, "stdin")
	pathSupplied := len(args) > 0
	count := 0
	for _, set := range []bool{codeFlagSet, stdinFlagSet, pathSupplied} {
		if set {
			count++
		}
	}
	if count > 1 {
		return nil, errors.New("multiple input sources specified")
	}
	if count == 0 {
		return nil, errors.New("no input provided")
	}
	switch {
	case stdinFlagSet:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		return &source{code: string(data), filename: "<stdin>"}, nil
	case pathSupplied:
		return readSourceFile(args[0])
	}
	code, err := cmd.Flags().GetString("code")
	if err != nil {
		return nil, err
	}
	return &source{code: code}, nil
}

func readSourceFile(path string) (*source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytecode.IsImage(data) {
		program, err := bytecode.Unmarshal(data)
		if err != nil {
			return nil, err
		}
		return &source{filename: path, image: program}, nil
	}
	return &source{code: string(data), filename: path}, nil
}

// compile returns the program for src, compiling it if needed.
func (src *source) compile(opts ...stax.Option) (*bytecode.Program, error) {
	if src.image != nil {
		return src.image, nil
	}
	opts = append(opts, stax.WithFilename(src.filename))
	return stax.Compile(src.code, opts...)
}
