package cmd

import (
	"github.com/spf13/cobra"

	"font-license/internal/errors"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check that a manifest is structurally valid",
	Long: `Parse a manifest and list every structural issue with its path.
Exits with code 1 when the manifest has issues.

Examples:
  font-license validate fonts.manifest.json
  font-license validate --format json fonts.manifest.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	result, _, err := parseManifest(args)
	if err != nil {
		return err
	}

	f, err := formatter()
	if err != nil {
		return err
	}
	if err := f.RenderIssues(cmd.OutOrStdout(), result.Issues); err != nil {
		return errors.Internal("cannot write issues", err)
	}
	return result.Err()
}
