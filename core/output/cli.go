package output

import (
	"fmt"
	"io"
	"strings"

	"font-license/core/determinism"
	"font-license/core/manifest"
	"font-license/core/policy"
	"font-license/core/quote"
	"font-license/core/types"
)

// boxWidth is the inner width of rendered tables
const boxWidth = 73

type cliFormatter struct {
	opts Options
}

func (f *cliFormatter) Format() Format {
	return FormatCLI
}

func (f *cliFormatter) RenderDecision(w io.Writer, result *policy.Result) error {
	b := &box{w: w}
	b.top()
	b.title("COMPLIANCE DECISION")
	b.sep()
	b.row("Decision", strings.ToUpper(string(result.Decision)))
	b.sep()

	if len(result.Reasons) == 0 {
		b.row("No findings", "")
	}
	for _, reason := range result.Reasons {
		b.row(string(reason.Code), "["+string(reason.Severity)+"]")
		b.detail("└─ " + reason.Message)
		if f.opts.ShowContext {
			for _, key := range determinism.SortedKeys(reason.Context) {
				b.detail(fmt.Sprintf("   %s=%v", key, reason.Context[key]))
			}
		}
	}
	b.bottom()

	if len(result.EvidenceRequired) > 0 {
		b.printf("\nEvidence required:\n")
		for _, path := range result.EvidenceRequired {
			b.printf("  - %s\n", path)
		}
	}
	return b.err
}

func (f *cliFormatter) RenderQuote(w io.Writer, q *quote.Quote) error {
	b := &box{w: w}
	b.top()
	b.title("LICENSE QUOTE")
	b.sep()

	if len(q.LineItems) == 0 {
		b.row("No priced licenses", "")
	}
	for _, item := range q.LineItems {
		b.row(item.LicenseID, money(item.Currency, item.Amount))
		b.detail(fmt.Sprintf("└─ %s@%s", item.OfferingID, item.OfferingVersion))
	}

	b.sep()
	for _, currency := range q.Currencies() {
		total, _ := q.Total(currency)
		b.row("TOTAL "+string(currency), money(currency, total))
	}
	if len(q.Totals) == 0 {
		b.row("TOTAL", "0.00")
	}
	b.bottom()

	if len(q.Skipped) > 0 {
		b.printf("\nSkipped:\n")
		for _, s := range q.Skipped {
			b.printf("  - %s\n", s)
		}
	}
	if q.GeneratedAt != "" {
		b.printf("\nGenerated at: %s\n", q.GeneratedAt)
	}
	b.printf("Hash: %s\n", q.DeterministicHash)
	return b.err
}

func (f *cliFormatter) RenderIssues(w io.Writer, issues []manifest.Issue) error {
	b := &box{w: w}
	if len(issues) == 0 {
		b.printf("✓ Manifest is valid\n")
		return b.err
	}
	b.printf("✗ Manifest has %d structural issue(s):\n", len(issues))
	for _, issue := range issues {
		b.printf("  %s\n", issue)
	}
	return b.err
}

func (f *cliFormatter) RenderFingerprint(w io.Writer, source, fingerprint string) error {
	_, err := fmt.Fprintf(w, "%s  %s\n", fingerprint, source)
	return err
}

func money(currency types.Currency, amount determinism.Amount) string {
	return string(currency) + " " + amount.String()
}

// box writes fixed-width tables and remembers the first write error
type box struct {
	w   io.Writer
	err error
}

func (b *box) printf(format string, args ...any) {
	if b.err != nil {
		return
	}
	_, b.err = fmt.Fprintf(b.w, format, args...)
}

func (b *box) top() {
	b.printf("┌%s┐\n", strings.Repeat("─", boxWidth))
}

func (b *box) sep() {
	b.printf("├%s┤\n", strings.Repeat("─", boxWidth))
}

func (b *box) bottom() {
	b.printf("└%s┘\n", strings.Repeat("─", boxWidth))
}

func (b *box) title(s string) {
	pad := (boxWidth - len(s)) / 2
	b.printf("│%s%-*s│\n", strings.Repeat(" ", pad), boxWidth-pad, s)
}

func (b *box) row(left, right string) {
	b.printf("│ %-50s %20s │\n", truncate(left, 50), truncate(right, 20))
}

func (b *box) detail(s string) {
	b.printf("│   %-69s │\n", truncate(s, 69))
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
