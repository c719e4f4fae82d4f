package documents

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fernbooks/fernbooks/internal/shared"
)

func line(qty, price, discount, taxRate float64) LineInput {
	return LineInput{
		Quantity:  decimal.NewFromFloat(qty),
		UnitPrice: decimal.NewFromFloat(price),
		Discount:  decimal.NewFromFloat(discount),
		TaxRate:   decimal.NewFromFloat(taxRate),
	}
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "want %s got %s", want, got)
}

func TestCalcLineExclusive(t *testing.T) {
	lt, err := CalcLine(line(2, 100, 0, 15), AmountTypeExclusive)
	require.NoError(t, err)
	requireAmount(t, "200", lt.LineAmount)
	requireAmount(t, "30", lt.TaxAmount)
}

func TestCalcLineDiscountBeforeTax(t *testing.T) {
	lt, err := CalcLine(line(1, 100, 10, 15), AmountTypeExclusive)
	require.NoError(t, err)
	requireAmount(t, "90", lt.LineAmount)
	requireAmount(t, "13.5", lt.TaxAmount)
}

func TestCalcLineInclusiveBacksOutTax(t *testing.T) {
	// 115 inclusive at 15% is 100 net + 15 tax.
	lt, err := CalcLine(line(1, 115, 0, 15), AmountTypeInclusive)
	require.NoError(t, err)
	requireAmount(t, "100", lt.LineAmount)
	requireAmount(t, "15", lt.TaxAmount)
}

func TestCalcLineInclusiveWithDiscount(t *testing.T) {
	// 115 * 0.9 = 103.50 inclusive, which is 90 net + 13.50 tax.
	lt, err := CalcLine(line(1, 115, 10, 15), AmountTypeInclusive)
	require.NoError(t, err)
	requireAmount(t, "90", lt.LineAmount)
	requireAmount(t, "13.5", lt.TaxAmount)
}

func TestCalcLineNoTaxForcesZero(t *testing.T) {
	lt, err := CalcLine(line(2, 100, 0, 15), AmountTypeNoTax)
	require.NoError(t, err)
	requireAmount(t, "200", lt.LineAmount)
	require.True(t, lt.TaxAmount.IsZero())
}

func TestCalcLineZeroQuantity(t *testing.T) {
	lt, err := CalcLine(line(0, 100, 0, 15), AmountTypeExclusive)
	require.NoError(t, err)
	require.True(t, lt.LineAmount.IsZero())
	require.True(t, lt.TaxAmount.IsZero())
}

func TestCalcLineValidation(t *testing.T) {
	cases := []LineInput{
		line(-1, 100, 0, 15),
		line(1, 100, 0, 101),
		line(1, 100, 0, -1),
		line(1, 100, 101, 15),
		line(1, 100, -5, 15),
	}
	for _, in := range cases {
		_, err := CalcLine(in, AmountTypeExclusive)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
}

func TestCalcTotalsSingleLine(t *testing.T) {
	totals, err := CalcTotals([]LineInput{line(10, 100, 0, 15)}, AmountTypeExclusive)
	require.NoError(t, err)
	requireAmount(t, "1000", totals.SubTotal)
	requireAmount(t, "150", totals.TotalTax)
	requireAmount(t, "1150", totals.Total)
}

func TestCalcTotalsMixedLines(t *testing.T) {
	totals, err := CalcTotals([]LineInput{
		line(5, 200, 0, 15),
		line(3, 50, 10, 15),
	}, AmountTypeExclusive)
	require.NoError(t, err)
	requireAmount(t, "1135", totals.SubTotal)
	requireAmount(t, "170.25", totals.TotalTax)
	requireAmount(t, "1305.25", totals.Total)
}

func TestCalcTotalsEmptyLines(t *testing.T) {
	totals, err := CalcTotals(nil, AmountTypeExclusive)
	require.NoError(t, err)
	require.True(t, totals.SubTotal.IsZero())
	require.True(t, totals.TotalTax.IsZero())
	require.True(t, totals.Total.IsZero())
}

func TestCalcTotalsRoundsPerLine(t *testing.T) {
	// Each line rounds to 0.33 before summing: 0.99, not round(0.999) = 1.00.
	totals, err := CalcTotals([]LineInput{
		line(1, 0.333, 0, 0),
		line(1, 0.333, 0, 0),
		line(1, 0.333, 0, 0),
	}, AmountTypeExclusive)
	require.NoError(t, err)
	requireAmount(t, "0.99", totals.SubTotal)
}

func TestCalcTotalsInvariant(t *testing.T) {
	totals, err := CalcTotals([]LineInput{
		line(7, 13.37, 12.5, 15),
		line(2, 99.99, 0, 12.5),
		line(1, 115, 0, 15),
	}, AmountTypeInclusive)
	require.NoError(t, err)
	require.True(t, totals.Total.Equal(totals.SubTotal.Add(totals.TotalTax)))
}
