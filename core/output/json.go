package output

import (
	"encoding/json"
	"io"

	"font-license/core/manifest"
	"font-license/core/policy"
	"font-license/core/quote"
)

type jsonFormatter struct{}

func (f *jsonFormatter) Format() Format {
	return FormatJSON
}

func (f *jsonFormatter) RenderDecision(w io.Writer, result *policy.Result) error {
	return writeJSON(w, result)
}

func (f *jsonFormatter) RenderQuote(w io.Writer, q *quote.Quote) error {
	return writeJSON(w, q)
}

func (f *jsonFormatter) RenderIssues(w io.Writer, issues []manifest.Issue) error {
	if issues == nil {
		issues = []manifest.Issue{}
	}
	return writeJSON(w, struct {
		Valid  bool             `json:"valid"`
		Issues []manifest.Issue `json:"issues"`
	}{Valid: len(issues) == 0, Issues: issues})
}

func (f *jsonFormatter) RenderFingerprint(w io.Writer, source, fingerprint string) error {
	return writeJSON(w, struct {
		Source      string `json:"source"`
		Fingerprint string `json:"fingerprint"`
	}{Source: source, Fingerprint: fingerprint})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
