package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stax [file]",
	Short: "Compile and run programs written in the stax stack language",
	Long: `Run a stax program from a file, from --code or from --stdin.
Without a program and with a terminal attached, an interactive REPL starts.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.stax.yaml)")
	pf.Bool("no-color", false, "Disable colored output")
	pf.String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	pf.Int("max-stack-depth", 0, "Maximum value and call stack depth (0 uses the default)")
	viper.BindPFlag("no-color", pf.Lookup("no-color"))
	viper.BindPFlag("log-level", pf.Lookup("log-level"))
	viper.BindPFlag("max-stack-depth", pf.Lookup("max-stack-depth"))

	flags := rootCmd.Flags()
	flags.StringP("code", "c", "", "Code to evaluate")
	flags.Bool("stdin", false, "Read code from stdin")
	flags.StringP("output", "o", "", "Output format for the result (json, text)")
	flags.Bool("no-repl", false, "Disable the REPL")
	flags.Bool("timing", false, "Show execution time")
	viper.BindPFlag("output", flags.Lookup("output"))
	viper.BindPFlag("no-repl", flags.Lookup("no-repl"))
	viper.BindPFlag("timing", flags.Lookup("timing"))
	rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(replCmd, disCmd, compileCmd, checkCmd, stepCmd, versionCmd)
}

// initConfig reads in the config file and STAX_ environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stax")
	}

	viper.SetEnvPrefix("stax")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fatal(fmt.Errorf("config %s: %w", filepath.Base(viper.ConfigFileUsed()), err))
		}
	}
	processGlobalFlags()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if _, ok := err.(*exitError); !ok {
			printError(err)
		}
		os.Exit(1)
	}
}
