package journals

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fernbooks/fernbooks/internal/shared"
)

func journalLine(account string, debit, credit float64) JournalLine {
	return JournalLine{
		AccountCode: account,
		Debit:       decimal.NewFromFloat(debit),
		Credit:      decimal.NewFromFloat(credit),
	}
}

func TestValidateBalance(t *testing.T) {
	err := ValidateBalance([]JournalLine{
		journalLine("200", 150, 0),
		journalLine("400", 0, 150),
	})
	require.NoError(t, err)
}

func TestValidateBalanceCentMismatch(t *testing.T) {
	err := ValidateBalance([]JournalLine{
		journalLine("200", 100.00, 0),
		journalLine("400", 0, 100.01),
	})
	var berr *BalanceError
	require.ErrorAs(t, err, &berr)
	require.Equal(t, int64(10000), berr.DebitCents)
	require.Equal(t, int64(10001), berr.CreditCents)
	require.ErrorIs(t, err, shared.ErrBusinessRule)
	require.Equal(t, "entries do not balance: debit 100.00 vs credit 100.01", err.Error())
}

func TestValidateBalanceEmpty(t *testing.T) {
	require.NoError(t, ValidateBalance(nil))
}

func TestValidateBalanceNoFloatDrift(t *testing.T) {
	// 0.1+0.2 style sums must balance exactly at cent precision.
	lines := []JournalLine{
		journalLine("200", 0.1, 0),
		journalLine("200", 0.2, 0),
		journalLine("400", 0, 0.3),
	}
	require.NoError(t, ValidateBalance(lines))
}

type memoryRepo struct {
	journals map[uuid.UUID]Journal
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Journal, error) {
	j, ok := r.journals[id]
	if !ok {
		return Journal{}, ErrJournalNotFound
	}
	return j, nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Journal, error) {
	var out []Journal
	for _, j := range r.journals {
		out = append(out, j)
	}
	return out, nil
}

func (r *memoryRepo) Insert(ctx context.Context, j *Journal) error {
	r.journals[j.ID] = *j
	return nil
}

func (r *memoryRepo) Replace(ctx context.Context, j *Journal) error {
	if _, ok := r.journals[j.ID]; !ok {
		return ErrJournalNotFound
	}
	r.journals[j.ID] = *j
	return nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := &memoryRepo{journals: make(map[uuid.UUID]Journal)}
	return NewService(repo, slog.New(slog.DiscardHandler)), repo
}

func TestCreateJournalGatedByBalance(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), CreateJournalRequest{
		Date:      "2026-03-01",
		Narration: "opening balance",
		Lines: []JournalLineRequest{
			{AccountCode: "200", Debit: 100},
			{AccountCode: "400", Credit: 90},
		},
	})
	var berr *BalanceError
	require.ErrorAs(t, err, &berr)
	require.Empty(t, repo.journals)

	j, err := svc.Create(context.Background(), CreateJournalRequest{
		Date:      "2026-03-01",
		Narration: "opening balance",
		Lines: []JournalLineRequest{
			{AccountCode: "200", Debit: 100},
			{AccountCode: "400", Credit: 100},
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.journals, 1)
	require.Len(t, j.Lines, 2)
}

func TestCreateJournalRequiresTwoLines(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateJournalRequest{
		Date:      "2026-03-01",
		Narration: "one sided",
		Lines: []JournalLineRequest{
			{AccountCode: "200", Debit: 0, Credit: 0},
		},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateJournalRechecksBalance(t *testing.T) {
	svc, _ := newTestService()
	j, err := svc.Create(context.Background(), CreateJournalRequest{
		Date:      "2026-03-01",
		Narration: "opening balance",
		Lines: []JournalLineRequest{
			{AccountCode: "200", Debit: 100},
			{AccountCode: "400", Credit: 100},
		},
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), j.ID, UpdateJournalRequest{
		Lines: []JournalLineRequest{
			{AccountCode: "200", Debit: 100},
			{AccountCode: "400", Credit: 99.99},
		},
	})
	var berr *BalanceError
	require.ErrorAs(t, err, &berr)

	got, err := svc.Get(context.Background(), j.ID)
	require.NoError(t, err)
	require.True(t, got.Lines[1].Credit.Equal(decimal.NewFromInt(100)))
}
