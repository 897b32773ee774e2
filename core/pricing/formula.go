// Package pricing evaluates offering price formulas against license instances.
package pricing

import (
	"github.com/shopspring/decimal"

	"font-license/core/determinism"
	"font-license/core/types"
	"font-license/internal/errors"
)

// CheckFormula verifies that an offering carries a usable price formula.
// A defect here means the offering document is broken, not that an instance
// is ineligible, so it is reported as a pricing error.
func CheckFormula(o types.Offering) error {
	key := o.Key().String()
	pf := o.PriceFormula
	switch {
	case pf == nil:
		return errors.Pricing("offering has no price_formula", nil).WithContext("offering", key)
	case !pf.Currency.IsValid():
		return errors.Newf(errors.TypePricing, "price_formula currency %q is not a 3-letter code", pf.Currency).
			WithContext("offering", key)
	case !pf.BasePrice.Valid:
		return errors.Pricing("price_formula base_price is missing or not a number", nil).WithContext("offering", key)
	case pf.BasePrice.Decimal.IsNegative():
		return errors.Newf(errors.TypePricing, "price_formula base_price %s is negative", pf.BasePrice.Decimal).
			WithContext("offering", key)
	}
	return nil
}

// Evaluate prices an instance's metric limits against an offering's formula.
// Rules apply in declaration order; each matching rule rounds to cents before
// the next one runs.
func Evaluate(o types.Offering, limits []types.MetricLimit) (determinism.Amount, error) {
	if err := CheckFormula(o); err != nil {
		return determinism.Amount{}, err
	}
	pf := o.PriceFormula

	amount := determinism.NewAmount(pf.BasePrice.Decimal)
	for _, rule := range pf.Rules {
		if !Matches(rule.When, limits) {
			continue
		}
		amount = amount.Apply(rule.Multiplier, rule.Add)
	}
	return amount, nil
}

// Matches reports whether a rule condition holds for the given metric limits.
//
//   - no condition, or a condition with neither filter nor bounds: match
//   - a filter that selects no limit: no match
//   - a filter without bounds that selects at least one limit: match
//   - bounds: some selected limit satisfies every bound
func Matches(when *types.Condition, limits []types.MetricLimit) bool {
	if when == nil {
		return true
	}
	if !when.HasFilter() && !when.HasBounds() {
		return true
	}

	candidates := selectLimits(when, limits)
	if when.HasFilter() && len(candidates) == 0 {
		return false
	}
	if !when.HasBounds() {
		return true
	}
	for _, ml := range candidates {
		if withinBounds(when, ml.Limit) {
			return true
		}
	}
	return false
}

func selectLimits(when *types.Condition, limits []types.MetricLimit) []types.MetricLimit {
	if !when.HasFilter() {
		return limits
	}
	var out []types.MetricLimit
	for _, ml := range limits {
		if when.MetricType != "" && ml.MetricType != when.MetricType {
			continue
		}
		if when.Period != "" && ml.Period != when.Period {
			continue
		}
		out = append(out, ml)
	}
	return out
}

func withinBounds(when *types.Condition, v decimal.Decimal) bool {
	if when.Gte.Valid && v.LessThan(when.Gte.Decimal) {
		return false
	}
	if when.Gt.Valid && !v.GreaterThan(when.Gt.Decimal) {
		return false
	}
	if when.Lte.Valid && v.GreaterThan(when.Lte.Decimal) {
		return false
	}
	if when.Lt.Valid && !v.LessThan(when.Lt.Decimal) {
		return false
	}
	if when.Eq.Valid && !v.Equal(when.Eq.Decimal) {
		return false
	}
	return true
}
