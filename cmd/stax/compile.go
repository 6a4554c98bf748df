package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stax/bytecode"
)

const imageExt = ".staxc"

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile a stax program into a binary image",
	Long: `Compile a stax program into a binary image that run, dis and step
accept in place of source code. The image is written next to the source
with a .staxc extension unless --out is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		path, err := compileFile(stdStreams(), args[0], out)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", muted("wrote"), path)
		return nil
	},
}

func init() {
	compileCmd.Flags().StringP("out", "O", "", "Path of the image to write")
}

func imagePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + imageExt
}

// compileFile compiles the program at path and writes its image to out,
// returning the path written.
func compileFile(s streams, path, out string) (string, error) {
	src, err := readSourceFile(path)
	if err != nil {
		return "", err
	}
	if src.image != nil {
		return "", fmt.Errorf("%s is already a compiled image", path)
	}
	opts, err := getStaxOptions(s.err)
	if err != nil {
		return "", err
	}
	program, err := src.compile(opts...)
	if err != nil {
		return "", reportError(s.err, err, useColor(os.Stderr))
	}
	data, err := bytecode.Marshal(program)
	if err != nil {
		return "", err
	}
	if out == "" {
		out = imagePath(path)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", err
	}
	return out, nil
}
