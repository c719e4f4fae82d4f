package documents

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fernbooks/fernbooks/internal/money"
	"github.com/fernbooks/fernbooks/internal/shared"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// LineInput carries the raw figures for one line item.
type LineInput struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	TaxRate   decimal.Decimal
}

// LineTotals is the derived pair for one line, already rounded to 2dp.
type LineTotals struct {
	LineAmount decimal.Decimal
	TaxAmount  decimal.Decimal
}

// Totals aggregates a document's monetary fields. Total = SubTotal + TotalTax
// always holds because both components are sums of per-line rounded values.
type Totals struct {
	SubTotal decimal.Decimal
	TotalTax decimal.Decimal
	Total    decimal.Decimal
	PerLine  []LineTotals
}

func validateLine(in LineInput) error {
	if in.Quantity.IsNegative() {
		return fmt.Errorf("%w: quantity must not be negative", shared.ErrValidation)
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(hundred) {
		return fmt.Errorf("%w: tax rate must be between 0 and 100", shared.ErrValidation)
	}
	if in.Discount.IsNegative() || in.Discount.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount must be between 0 and 100", shared.ErrValidation)
	}
	return nil
}

// CalcLine computes one line's amounts. Discount applies before tax as a
// percentage off quantity * unitPrice. For inclusive pricing the tax portion
// is backed out of the discounted amount; LineAmount is always the
// tax-exclusive figure. Both results are rounded to 2dp here, at the line
// level, before any summation.
func CalcLine(in LineInput, amountType AmountType) (LineTotals, error) {
	if err := validateLine(in); err != nil {
		return LineTotals{}, err
	}

	gross := in.Quantity.Mul(in.UnitPrice)
	discounted := gross.Mul(one.Sub(in.Discount.Div(hundred)))

	switch amountType {
	case AmountTypeNoTax:
		return LineTotals{
			LineAmount: money.Round2(discounted),
			TaxAmount:  decimal.Zero,
		}, nil
	case AmountTypeInclusive:
		// unitPrice is tax-inclusive: tax = amount * rate / (100 + rate).
		tax := discounted.Mul(in.TaxRate).Div(hundred.Add(in.TaxRate))
		return LineTotals{
			LineAmount: money.Round2(discounted.Sub(tax)),
			TaxAmount:  money.Round2(tax),
		}, nil
	case AmountTypeExclusive:
		tax := discounted.Mul(in.TaxRate).Div(hundred)
		return LineTotals{
			LineAmount: money.Round2(discounted),
			TaxAmount:  money.Round2(tax),
		}, nil
	}
	return LineTotals{}, fmt.Errorf("%w: unknown amount type %q", shared.ErrValidation, amountType)
}

// CalcTotals computes document totals from line inputs. Zero line items is a
// valid state for drafts and yields all-zero totals.
func CalcTotals(lines []LineInput, amountType AmountType) (Totals, error) {
	totals := Totals{
		SubTotal: decimal.Zero,
		TotalTax: decimal.Zero,
		Total:    decimal.Zero,
		PerLine:  make([]LineTotals, 0, len(lines)),
	}
	for _, in := range lines {
		lt, err := CalcLine(in, amountType)
		if err != nil {
			return Totals{}, err
		}
		totals.PerLine = append(totals.PerLine, lt)
		totals.SubTotal = totals.SubTotal.Add(lt.LineAmount)
		totals.TotalTax = totals.TotalTax.Add(lt.TaxAmount)
	}
	totals.Total = totals.SubTotal.Add(totals.TotalTax)
	return totals, nil
}
