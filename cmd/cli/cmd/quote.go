package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"font-license/core/manifest"
	"font-license/core/quote"
	"font-license/core/types"
	"font-license/internal/config"
	"font-license/internal/errors"
	"font-license/internal/logging"
)

var (
	quoteAt       string
	omitTimestamp bool
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote [manifest]",
	Short: "Price the active license instances of a manifest",
	Long: `Evaluate the price formula of every active license instance and print
line items, per-currency totals and the deterministic hash.

The hash covers totals, line items and skipped instances only, so it is
stable across runs regardless of --at.

Examples:
  font-license quote fonts.manifest.json
  font-license quote --at 2024-01-01T00:00:00Z fonts.manifest.json
  font-license quote --omit-timestamp --format json fonts.manifest.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVar(&quoteAt, "at", "", "generation time in RFC 3339 (default now)")
	quoteCmd.Flags().BoolVar(&omitTimestamp, "omit-timestamp", false, "leave generated_at empty")
}

func runQuote(cmd *cobra.Command, args []string) error {
	generatedAt, err := quoteTime(quoteAt, omitTimestamp || config.Get().Quote.OmitTimestamp, time.Now)
	if err != nil {
		return err
	}

	m, path, err := loadManifest(cmd, args)
	if err != nil {
		return err
	}

	q, err := quote.Generate(m, generatedAt)
	if err != nil {
		return err
	}
	logging.Info("quote generated",
		zap.String("manifest", path),
		zap.Int("line_items", len(q.LineItems)),
		zap.Int("skipped", len(q.Skipped)),
		zap.String("hash", q.DeterministicHash))
	logSkipped(m, q)

	f, err := formatter()
	if err != nil {
		return err
	}
	if err := f.RenderQuote(cmd.OutOrStdout(), q); err != nil {
		return errors.Internal("cannot write quote", err)
	}
	return nil
}

// logSkipped warns once per instance left out of the quote. Unresolved
// offerings are logged with the versions the manifest does define.
func logSkipped(m *types.Manifest, q *quote.Quote) {
	idx := manifest.BuildIndex(m)
	for _, entry := range q.Skipped {
		i := strings.LastIndexByte(entry, ':')
		if i < 0 {
			continue
		}
		licenseID, reason := entry[:i], entry[i+1:]
		fields := []zap.Field{zap.String("license_id", licenseID), zap.String("reason", reason)}
		if inst, ok := idx.Instance(licenseID); ok && reason == quote.SkipOfferingNotFound {
			fields = append(fields,
				zap.String("offering", inst.OfferingRef.Key().String()),
				zap.Strings("known_versions", idx.OfferingVersions(inst.OfferingRef.OfferingID)))
		}
		logging.Warn("license instance not priced", fields...)
	}
}

// quoteTime resolves the generated_at value; zero means omitted
func quoteTime(at string, omit bool, now func() time.Time) (time.Time, error) {
	if omit {
		return time.Time{}, nil
	}
	if at == "" {
		return now(), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.TypeInput, "--at must be an RFC 3339 time", err)
	}
	return t, nil
}
