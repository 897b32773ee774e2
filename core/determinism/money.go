package determinism

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CentPlaces is the number of decimal places every Amount is held at.
const CentPlaces = 2

// Amount is a monetary amount rounded to cents after every operation.
// NEVER use float64 for money calculations.
type Amount struct {
	value decimal.Decimal
}

// Round2 rounds d to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// NewAmount creates an Amount from a decimal, rounding to cents
func NewAmount(d decimal.Decimal) Amount {
	return Amount{value: Round2(d)}
}

// ParseAmount creates an Amount from a decimal string
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(d), nil
}

// MustAmount is ParseAmount for constants; it panics on malformed input.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(fmt.Sprintf("invalid amount %q: %v", s, err))
	}
	return a
}

// Decimal returns the underlying decimal
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// Add adds two amounts and rounds the sum
func (a Amount) Add(other Amount) Amount {
	return NewAmount(a.value.Add(other.value))
}

// Apply computes round2(a*multiplier + add).
func (a Amount) Apply(multiplier, add decimal.Decimal) Amount {
	return NewAmount(a.value.Mul(multiplier).Add(add))
}

// Equal reports numeric equality
func (a Amount) Equal(other Amount) bool {
	return a.value.Equal(other.value)
}

// String returns the amount with exactly 2 decimal places
func (a Amount) String() string {
	return a.value.StringFixed(CentPlaces)
}

// MarshalJSON emits the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.value.String()), nil
}

