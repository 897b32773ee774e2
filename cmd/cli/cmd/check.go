package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"font-license/core/policy"
	"font-license/internal/errors"
	"font-license/internal/logging"
)

var strict bool

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [manifest]",
	Short: "Evaluate a manifest for license compliance",
	Long: `Run the compliance checks over every font of a manifest and print the
decision with its reasons.

Exit codes: 0 allow or warn, 2 warn with --strict, 3 escalate, 1 on error.

Examples:
  font-license check
  font-license check --strict fonts.manifest.json
  font-license check --format json fonts.manifest.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&strict, "strict", false, "exit with code 2 when the decision is warn")
}

func runCheck(cmd *cobra.Command, args []string) error {
	m, path, err := loadManifest(cmd, args)
	if err != nil {
		return err
	}

	result := policy.Evaluate(m)
	fields := []zap.Field{
		zap.String("manifest", path),
		zap.String("decision", string(result.Decision)),
		zap.Int("reasons", len(result.Reasons)),
	}
	if result.Decision == policy.DecisionAllow {
		logging.Info("policy evaluated", fields...)
	} else {
		logging.Warn("policy evaluated with findings", fields...)
	}

	f, err := formatter()
	if err != nil {
		return err
	}
	if err := f.RenderDecision(cmd.OutOrStdout(), result); err != nil {
		return errors.Internal("cannot write decision", err)
	}

	return decisionError(result, strict)
}

// decisionError turns a decision into the command's exit status
func decisionError(result *policy.Result, strict bool) error {
	var code int
	switch {
	case result.HasEscalations():
		code = ExitEscalate
	case result.Decision == policy.DecisionWarn && strict:
		code = ExitWarn
	default:
		return nil
	}
	err := errors.Policy(fmt.Sprintf("decision %s with %d finding(s)", result.Decision, len(result.Reasons))).
		WithContext("decision", result.Decision)
	return &ExitError{Code: code, Err: err}
}
