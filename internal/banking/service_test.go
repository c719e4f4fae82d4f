package banking

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fernbooks/fernbooks/internal/documents"
	"github.com/fernbooks/fernbooks/internal/shared"
)

type memoryRepo struct {
	txs        map[uuid.UUID]Transaction
	candidates map[documents.Type][]Candidate
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		txs:        make(map[uuid.UUID]Transaction),
		candidates: make(map[documents.Type][]Candidate),
	}
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	tx, ok := r.txs[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return tx, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListTransactionsFilter) ([]Transaction, error) {
	var out []Transaction
	for _, tx := range r.txs {
		if filter.AccountID != nil && tx.AccountID != *filter.AccountID {
			continue
		}
		if filter.Reconciled != nil && tx.IsReconciled != *filter.Reconciled {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *memoryRepo) Insert(ctx context.Context, tx *Transaction) error {
	r.txs[tx.ID] = *tx
	return nil
}

func (r *memoryRepo) InsertBatch(ctx context.Context, txs []Transaction) error {
	for _, tx := range txs {
		r.txs[tx.ID] = tx
	}
	return nil
}

func (r *memoryRepo) SetReconciled(ctx context.Context, id uuid.UUID, category *string, when time.Time) error {
	tx, ok := r.txs[id]
	if !ok || tx.IsReconciled {
		return ErrAlreadyReconciled
	}
	tx.IsReconciled = true
	if category != nil {
		tx.Category = category
	}
	tx.UpdatedAt = when
	r.txs[id] = tx
	return nil
}

func (r *memoryRepo) ListCandidates(ctx context.Context, t documents.Type) ([]Candidate, error) {
	return r.candidates[t], nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(repo, cache, slog.New(slog.DiscardHandler)), repo
}

func seedTransaction(repo *memoryRepo, amount float64, description string) Transaction {
	tx := Transaction{
		ID:          uuid.New(),
		AccountID:   uuid.New(),
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromFloat(amount),
		Description: description,
	}
	repo.txs[tx.ID] = tx
	return tx
}

func TestImportTransactions(t *testing.T) {
	svc, repo := newTestService(t)
	accountID := uuid.New()

	txs, err := svc.Import(context.Background(), ImportTransactionsRequest{
		AccountID: accountID,
		Transactions: []ImportLine{
			{Date: "2026-03-01", Amount: 150.50, Description: "EFTPOS deposit"},
			{Date: "2026-03-02", Amount: -42.00, Description: "power bill"},
		},
	})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Len(t, repo.txs, 2)
	require.Equal(t, accountID, txs[0].AccountID)
	require.False(t, txs[0].IsReconciled)
}

func TestImportValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Import(context.Background(), ImportTransactionsRequest{
		AccountID: uuid.New(),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestReconcileIsOneWay(t *testing.T) {
	svc, repo := newTestService(t)
	tx := seedTransaction(repo, 500, "deposit")

	category := "sales"
	got, err := svc.Reconcile(context.Background(), tx.ID, ReconcileRequest{Category: &category})
	require.NoError(t, err)
	require.True(t, got.IsReconciled)
	require.Equal(t, "sales", *got.Category)

	_, err = svc.Reconcile(context.Background(), tx.ID, ReconcileRequest{})
	require.ErrorIs(t, err, ErrAlreadyReconciled)
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestBulkReconcileCountsFailures(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedTransaction(repo, 100, "a")
	b := seedTransaction(repo, 200, "b")
	_, err := svc.Reconcile(context.Background(), b.ID, ReconcileRequest{})
	require.NoError(t, err)

	result, err := svc.BulkReconcile(context.Background(), BulkReconcileRequest{
		IDs: []uuid.UUID{a.ID, b.ID, uuid.New()},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Reconciled)
	require.Equal(t, 2, result.Failed)
}

func TestSuggestPicksFamilyBySign(t *testing.T) {
	svc, repo := newTestService(t)
	repo.candidates[documents.TypeInvoice] = []Candidate{
		{ID: uuid.New(), Type: documents.TypeInvoice, AmountDue: decimal.NewFromInt(500)},
	}
	repo.candidates[documents.TypeBill] = []Candidate{
		{ID: uuid.New(), Type: documents.TypeBill, AmountDue: decimal.NewFromInt(500)},
	}

	in := seedTransaction(repo, 500, "deposit")
	got, err := svc.Suggest(context.Background(), in.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, documents.TypeInvoice, got[0].DocumentType)

	out := seedTransaction(repo, -500, "supplier payment")
	got, err = svc.Suggest(context.Background(), out.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, documents.TypeBill, got[0].DocumentType)
}

func TestSuggestReconciledEmpty(t *testing.T) {
	svc, repo := newTestService(t)
	tx := seedTransaction(repo, 500, "deposit")
	_, err := svc.Reconcile(context.Background(), tx.ID, ReconcileRequest{})
	require.NoError(t, err)

	got, err := svc.Suggest(context.Background(), tx.ID)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSuggestCachesPerTransaction(t *testing.T) {
	svc, repo := newTestService(t)
	tx := seedTransaction(repo, 500, "deposit")
	repo.candidates[documents.TypeInvoice] = []Candidate{
		{ID: uuid.New(), Type: documents.TypeInvoice, Number: "INV-0001", AmountDue: decimal.NewFromInt(500)},
	}

	first, err := svc.Suggest(context.Background(), tx.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A candidate change is invisible until the cache entry expires.
	repo.candidates[documents.TypeInvoice] = nil
	second, err := svc.Suggest(context.Background(), tx.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, first[0].DocumentID, second[0].DocumentID)
}

func TestReconcileDropsCachedSuggestions(t *testing.T) {
	svc, repo := newTestService(t)
	tx := seedTransaction(repo, 500, "deposit")
	repo.candidates[documents.TypeInvoice] = []Candidate{
		{ID: uuid.New(), Type: documents.TypeInvoice, AmountDue: decimal.NewFromInt(500)},
	}

	got, err := svc.Suggest(context.Background(), tx.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = svc.Reconcile(context.Background(), tx.ID, ReconcileRequest{})
	require.NoError(t, err)

	got, err = svc.Suggest(context.Background(), tx.ID)
	require.NoError(t, err)
	require.Empty(t, got)
}
