// Package quote generates deterministic price quotes from a license manifest.
package quote

import (
	"fmt"
	"time"

	"font-license/core/determinism"
	"font-license/core/manifest"
	"font-license/core/pricing"
	"font-license/core/types"
	"font-license/internal/errors"
)

// Skip reasons recorded in Quote.Skipped as "<license_id>:<reason>"
const (
	SkipOfferingRefMissing = "offering_ref_missing"
	SkipOfferingNotFound   = "offering_not_found"
)

// LineItem is the price of one active license instance
type LineItem struct {
	LicenseID       string             `json:"license_id"`
	OfferingID      string             `json:"offering_id"`
	OfferingVersion string             `json:"offering_version"`
	Currency        types.Currency     `json:"currency"`
	Amount          determinism.Amount `json:"amount"`
}

// Quote is the priced view of a manifest
type Quote struct {
	// GeneratedAt is supplied by the caller and excluded from the hash
	GeneratedAt string `json:"generated_at,omitempty"`

	// Totals sums line item amounts per currency
	Totals map[types.Currency]determinism.Amount `json:"totals"`

	// LineItems are sorted by license_id
	LineItems []LineItem `json:"line_items"`

	// Skipped lists instances that were not priced, sorted
	Skipped []string `json:"skipped"`

	// DeterministicHash fingerprints totals, line_items and skipped
	DeterministicHash string `json:"deterministic_hash"`
}

// hashed is the part of a quote covered by DeterministicHash
type hashed struct {
	Totals    map[types.Currency]determinism.Amount `json:"totals"`
	LineItems []LineItem                            `json:"line_items"`
	Skipped   []string                              `json:"skipped"`
}

// Generate prices every eligible license instance of m.
// generatedAt is copied into the quote verbatim; a zero time leaves it empty.
// The only error is a malformed price formula on a referenced offering.
func Generate(m *types.Manifest, generatedAt time.Time) (*Quote, error) {
	idx := manifest.BuildIndex(m)

	lineItems := make([]LineItem, 0, len(m.Instances))
	skipped := make([]string, 0)

	for _, inst := range m.Instances {
		if inst.Inactive() {
			skipped = append(skipped, fmt.Sprintf("%s:status=%s", inst.LicenseID, inst.Status))
			continue
		}
		if !inst.OfferingRef.Complete() {
			skipped = append(skipped, inst.LicenseID+":"+SkipOfferingRefMissing)
			continue
		}
		offering, ok := idx.Offering(inst.OfferingRef.Key())
		if !ok {
			skipped = append(skipped, inst.LicenseID+":"+SkipOfferingNotFound)
			continue
		}

		amount, err := pricing.Evaluate(offering, inst.MetricLimits)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.WithContext("license_id", inst.LicenseID)
			}
			return nil, err
		}

		lineItems = append(lineItems, LineItem{
			LicenseID:       inst.LicenseID,
			OfferingID:      offering.OfferingID,
			OfferingVersion: offering.OfferingVersion,
			Currency:        offering.PriceFormula.Currency,
			Amount:          amount,
		})
	}

	determinism.SortSlice(lineItems, func(a, b LineItem) bool {
		return a.LicenseID < b.LicenseID
	})
	determinism.SortSlice(skipped, func(a, b string) bool { return a < b })

	totals := make(map[types.Currency]determinism.Amount)
	for _, item := range lineItems {
		totals[item.Currency] = totals[item.Currency].Add(item.Amount)
	}

	hash, err := determinism.Fingerprint(hashed{Totals: totals, LineItems: lineItems, Skipped: skipped})
	if err != nil {
		return nil, errors.Internal("fingerprint quote", err)
	}

	q := &Quote{
		Totals:            totals,
		LineItems:         lineItems,
		Skipped:           skipped,
		DeterministicHash: hash,
	}
	if !generatedAt.IsZero() {
		q.GeneratedAt = generatedAt.UTC().Format(time.RFC3339)
	}
	return q, nil
}

// Total returns the total for a currency, and whether any line item used it
func (q *Quote) Total(currency types.Currency) (determinism.Amount, bool) {
	a, ok := q.Totals[currency]
	return a, ok
}

// Currencies returns the quoted currencies in ascending order
func (q *Quote) Currencies() []types.Currency {
	return determinism.SortedKeys(q.Totals)
}
