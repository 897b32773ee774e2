package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"font-license/internal/config"
	"font-license/internal/errors"
	"font-license/internal/logging"
)

var configForce bool

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

// configInitCmd writes the default configuration
var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration file",
	Long: `Write the default configuration to path, or to $HOME/.font-license.json.
Settings can then be edited in the file or overridden with FONTLIC_*
environment variables, e.g. FONTLIC_OUTPUT_DEFAULT_FORMAT=json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !configForce {
		return errors.Newf(errors.TypeConfig, "%s already exists, use --force to overwrite", path)
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}
	logging.Info("configuration written", zap.String("config", path))
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}
