// Package cmd provides the CLI commands for font-license.
package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"font-license/core/output"
	"font-license/internal/config"
	"font-license/internal/logging"
)

// Version is the tool version
const Version = "0.1.0"

// Process exit codes
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitWarn     = 2
	ExitEscalate = 3
)

var (
	cfgFile        string
	verbose        bool
	outputFormat   string
	manifestFormat string
	runID          string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "font-license",
	Short: "Check font licenses and quote their cost",
	Long: `font-license reads a font license manifest and checks that the fonts a
project uses are covered by the licenses it holds.

It produces a compliance decision (allow, warn, escalate) and a deterministic
price quote for the active licenses.

Examples:
  font-license check fonts.manifest.json
  font-license check --strict --format json fonts.manifest.yaml
  font-license quote --omit-timestamp fonts.manifest.json
  font-license fingerprint fonts.manifest.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExitError carries the process exit code for a finished command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps a command error to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Execute runs the CLI
func Execute() error {
	defer logging.Sync()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.font-license.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json)")
	rootCmd.PersistentFlags().StringVar(&manifestFormat, "input-format", "", "manifest format (json, yaml); default by file extension")

	// Add subcommands
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(ExitFailure)
	}
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}

	runID = uuid.NewString()
	logging.Set(logging.With(zap.String("run_id", runID)))
	logging.Debug("configuration loaded", zap.String("config", path))
}

// formatter returns the formatter selected by flag or config
func formatter() (output.Formatter, error) {
	cfg := config.Get()
	format := outputFormat
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	return output.New(output.Format(format), output.Options{ShowContext: cfg.Output.ShowContext})
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "font-license version %s\n", Version)
	},
}
