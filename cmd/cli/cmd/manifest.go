package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"font-license/core/manifest"
	"font-license/core/output"
	"font-license/core/types"
	"font-license/internal/config"
	"font-license/internal/errors"
	"font-license/internal/logging"
)

// manifestPath returns the path argument, or the configured default
func manifestPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return config.Get().Manifest.Path
}

// documentFormat picks the format by flag, then config, then file extension
func documentFormat(path string) manifest.Format {
	if manifestFormat != "" {
		return manifest.Format(manifestFormat)
	}
	if f := config.Get().Manifest.Format; f != "" {
		return manifest.Format(f)
	}
	return manifest.FormatFromPath(path)
}

func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.MissingFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "cannot read manifest", err).WithContext("path", path)
	}
	return data, nil
}

// parseManifest reads and parses the manifest named by args
func parseManifest(args []string) (*manifest.ParseResult, string, error) {
	path := manifestPath(args)
	data, err := readDocument(path)
	if err != nil {
		return nil, path, err
	}

	result, err := manifest.Parse(data, documentFormat(path))
	if err != nil {
		return nil, path, err
	}
	logging.Debug("manifest parsed",
		zap.String("manifest", path),
		zap.Int("issues", len(result.Issues)))
	return result, path, nil
}

// loadManifest returns a usable manifest or prints its issues to stderr
func loadManifest(cmd *cobra.Command, args []string) (*types.Manifest, string, error) {
	result, path, err := parseManifest(args)
	if err != nil {
		return nil, path, err
	}
	if !result.OK() {
		// stdout is reserved for the command's own result
		f, _ := output.New(output.FormatCLI, output.Options{})
		_ = f.RenderIssues(cmd.ErrOrStderr(), result.Issues)
		return nil, path, result.Err()
	}
	return result.Manifest, path, nil
}
