package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/dis"
)

var disCmd = &cobra.Command{
	Use:   "dis [file]",
	Short: "Disassemble a stax program",
	Long: `Disassemble a stax program into its instructions. The input may be
source code or a compiled image.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := getStaxSource(cmd, args, os.Stdin)
		if err != nil {
			return err
		}
		stats, _ := cmd.Flags().GetBool("stats")
		return disassemble(stdStreams(), src, stats)
	},
}

func init() {
	disCmd.Flags().StringP("code", "c", "", "Code to disassemble")
	disCmd.Flags().Bool("stdin", false, "Read code from stdin")
	disCmd.Flags().Bool("stats", false, "Print program statistics after the listing")
}

func disassemble(s streams, src *source, withStats bool) error {
	opts, err := getStaxOptions(s.err)
	if err != nil {
		return err
	}
	program, err := src.compile(opts...)
	if err != nil {
		return reportError(s.err, err, useColor(os.Stderr))
	}
	instructions, err := dis.Disassemble(program)
	if err != nil {
		return err
	}
	dis.Print(instructions, s.out)
	if withStats {
		printStats(s.out, program.Stats())
	}
	return nil
}

func printStats(w io.Writer, stats bytecode.Stats) {
	fmt.Fprintf(w, "%s %d  %s %d  %s %d  %s %d  %s %d\n",
		muted("instructions"), stats.InstructionCount,
		muted("labels"), stats.LabelCount,
		muted("variables"), stats.VariableCount,
		muted("jumps"), stats.JumpCount,
		muted("source bytes"), stats.SourceBytes)
}
