package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		return printVersion(os.Stdout, format)
	},
}

func init() {
	versionCmd.Flags().StringP("output", "o", "", "Output format (json, text)")
}

func printVersion(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "json":
		info, err := json.MarshalIndent(map[string]any{
			"version": version,
			"commit":  commit,
			"date":    date,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(info))
	case "", "text":
		fmt.Fprintln(w, version)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}
