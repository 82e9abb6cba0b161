// Package currency converts and formats monetary amounts for display. The
// canonical currency is INR; conversion is a pure multiplication by a rate
// resolved elsewhere.
package currency

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CanonicalCode is the currency all amounts are stored in.
const CanonicalCode = "INR"

// NormalizeCode trims and uppercases an ISO 4217 code. Empty input falls back
// to the canonical currency.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return CanonicalCode
	}
	return code
}

// Convert applies a display rate to a stored amount. Rate 1 is the identity
// used for the canonical currency.
func Convert(amount, rate float64) float64 {
	return amount * rate
}

// Format renders an amount with the currency's symbol and grouped digits.
// Codes the ISO table does not know fall back to "<CODE> <amount>" with two
// decimals so rendering never fails on exotic input.
func Format(amount float64, code string) string {
	code = NormalizeCode(code)
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %.2f", code, amount)
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("%v%.2f", currency.Symbol(unit), amount)
}
