package cmd

import (
	"github.com/spf13/cobra"

	"font-license/core/determinism"
	"font-license/core/manifest"
	"font-license/internal/errors"
)

// fingerprintCmd represents the fingerprint command
var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <file>",
	Short: "Print the canonical SHA-256 fingerprint of a JSON or YAML document",
	Long: `Canonicalize a document (object keys sorted at every depth, no
whitespace) and print the SHA-256 of its JSON encoding. Documents that differ
only in key order or formatting share a fingerprint.

Examples:
  font-license fingerprint fonts.manifest.json
  font-license fingerprint --input-format yaml fonts.manifest.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runFingerprint,
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := readDocument(path)
	if err != nil {
		return err
	}
	fp, err := fingerprintDocument(data, documentFormat(path))
	if err != nil {
		return err
	}

	f, err := formatter()
	if err != nil {
		return err
	}
	if err := f.RenderFingerprint(cmd.OutOrStdout(), path, fp); err != nil {
		return errors.Internal("cannot write fingerprint", err)
	}
	return nil
}

func fingerprintDocument(data []byte, format manifest.Format) (string, error) {
	tree, err := manifest.Decode(data, format)
	if err != nil {
		return "", err
	}
	fp, err := determinism.Fingerprint(tree)
	if err != nil {
		return "", errors.Wrap(errors.TypeInput, "document cannot be canonicalized", err)
	}
	return fp, nil
}
