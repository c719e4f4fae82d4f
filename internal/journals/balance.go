package journals

import (
	"fmt"

	"github.com/fernbooks/fernbooks/internal/money"
	"github.com/fernbooks/fernbooks/internal/shared"
)

// BalanceError reports unequal debit and credit sums, in cents, so the
// caller can render both sides.
type BalanceError struct {
	DebitCents  int64
	CreditCents int64
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("entries do not balance: debit %.2f vs credit %.2f",
		float64(e.DebitCents)/100, float64(e.CreditCents)/100)
}

func (e *BalanceError) Unwrap() error { return shared.ErrBusinessRule }

// ValidateBalance requires Σdebit == Σcredit at integer-cent precision.
// Empty lines balance trivially (0 == 0); line-count rules live in the DTO.
func ValidateBalance(lines []JournalLine) error {
	var debit, credit int64
	for _, line := range lines {
		debit += money.Cents(line.Debit)
		credit += money.Cents(line.Credit)
	}
	if debit != credit {
		return &BalanceError{DebitCents: debit, CreditCents: credit}
	}
	return nil
}
