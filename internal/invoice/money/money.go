// Package money holds the pure invoice arithmetic. All functions are
// deterministic and side-effect free; amounts are denominated in the
// account's canonical currency.
package money

import (
	"errors"
	"math"
)

var (
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrNegativeAmount = errors.New("negative_amount")
	ErrInvalidTaxRate = errors.New("invalid_tax_rate")
)

// ValidateAmount rejects NaN, infinities and negative values. Negative
// discounts and charges are rejected rather than clamped so user input
// errors are surfaced instead of silently absorbed.
func ValidateAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidAmount
	}
	if v < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// ValidateRate accepts percentages in [0, 100].
func ValidateRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 || rate > 100 {
		return ErrInvalidTaxRate
	}
	return nil
}

// TaxableAmount is the discounted base tax applies to.
func TaxableAmount(subtotal, discount float64) float64 {
	return math.Max(0, subtotal-discount)
}

// TaxAmount computes tax over the taxable base at a percentage rate.
func TaxAmount(taxable, rate float64) (float64, error) {
	if err := ValidateRate(rate); err != nil {
		return 0, err
	}
	return taxable * rate / 100, nil
}

// GrandTotal sums the taxable base, tax and additional charges, floored at zero.
func GrandTotal(taxable, tax, charges float64) float64 {
	return math.Max(0, taxable+tax+charges)
}

// DeriveTotal recomputes an invoice total from its components:
// max(0, subtotal - discount + taxTotal + charges). Callers only invoke this
// when both subtotal and taxTotal are known; otherwise the caller-supplied
// total stands (manual-total fallback).
func DeriveTotal(subtotal, discount, taxTotal, charges float64) float64 {
	return math.Max(0, subtotal-discount+taxTotal+charges)
}
