// Package output renders compliance decisions and quotes.
// This package produces human and machine-readable outputs.
package output

import (
	"io"

	"font-license/core/manifest"
	"font-license/core/policy"
	"font-license/core/quote"
	"font-license/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// RenderDecision writes a policy evaluation result
	RenderDecision(w io.Writer, result *policy.Result) error

	// RenderQuote writes a generated quote
	RenderQuote(w io.Writer, q *quote.Quote) error

	// RenderIssues writes the structural issues of a rejected manifest
	RenderIssues(w io.Writer, issues []manifest.Issue) error

	// RenderFingerprint writes the fingerprint of a document
	RenderFingerprint(w io.Writer, source, fingerprint string) error
}

// Options tune rendering
type Options struct {
	// ShowContext prints each reason's context in cli output
	ShowContext bool
}

// New returns the formatter for format
func New(format Format, opts Options) (Formatter, error) {
	switch format {
	case FormatCLI:
		return &cliFormatter{opts: opts}, nil
	case FormatJSON:
		return &jsonFormatter{}, nil
	default:
		return nil, errors.Newf(errors.TypeInput, "unknown output format %q", format).
			WithContext("supported", []Format{FormatCLI, FormatJSON})
	}
}
