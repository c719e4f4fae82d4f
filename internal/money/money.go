// Package money provides two-decimal monetary arithmetic for the engine.
//
// All document amounts are rounded to 2 decimal places at the line level
// before summation. Re-implementations that round after summing will drift
// from stored totals by cents.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	// Amounts serialise as JSON numbers, matching the API contract.
	decimal.MarshalJSONWithoutQuotes = true
}

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Round2 rounds an amount to 2 decimal places (half away from zero).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromFloat converts a float input value into a decimal amount.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// Cents returns the amount in integer cents after 2dp rounding. Balance
// comparisons use cents to avoid binary floating point accumulation.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

var symbols = map[string]string{
	"NZD": "$",
	"AUD": "$",
	"USD": "$",
	"GBP": "£",
	"EUR": "€",
}

var printer = message.NewPrinter(language.English)

// Format renders an amount for display, e.g. "$1,234.50" or "-$500.00".
func Format(d decimal.Decimal, currency string) string {
	symbol, ok := symbols[currency]
	if !ok {
		symbol = currency + " "
	}
	abs := d.Abs().Round(2)
	formatted := printer.Sprintf("%.2f", abs.InexactFloat64())
	if d.IsNegative() {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}
