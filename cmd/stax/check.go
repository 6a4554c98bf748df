package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Compile programs without running them",
	Long: `Compile every given program and report all errors found. The exit
status is non-zero if any program fails to compile.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkFiles(stdStreams(), args, useColor(os.Stderr))
	},
}

// checkFiles compiles each file independently. Every failure is collected
// and reported together.
func checkFiles(s streams, paths []string, colored bool) error {
	opts, err := getStaxOptions(s.err)
	if err != nil {
		return err
	}
	var result *multierror.Error
	failed := 0
	for _, path := range paths {
		src, err := readSourceFile(path)
		if err == nil {
			_, err = src.compile(opts...)
		}
		if err != nil {
			failed++
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		reportError(s.err, err, colored)
		return &exitError{err: fmt.Errorf("%d of %d files failed", failed, len(paths))}
	}
	fmt.Fprintf(s.out, "%s %d %s\n", muted("checked"), len(paths), plural(len(paths), "file", "files"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
