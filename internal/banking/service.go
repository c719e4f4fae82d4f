package banking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/fernbooks/fernbooks/internal/documents"
	"github.com/fernbooks/fernbooks/internal/shared"
)

var (
	// ErrTransactionNotFound indicates an unknown transaction id.
	ErrTransactionNotFound = fmt.Errorf("bank transaction %w", shared.ErrNotFound)
	// ErrAlreadyReconciled indicates a reconcile attempt on a reconciled
	// transaction. The flip is one-way.
	ErrAlreadyReconciled = fmt.Errorf("%w: transaction already reconciled", shared.ErrBusinessRule)
)

const suggestionTTL = 5 * time.Minute

// Repository defines data access for bank transactions and the open
// documents the scorer reads.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Transaction, error)
	List(ctx context.Context, filter ListTransactionsFilter) ([]Transaction, error)
	Insert(ctx context.Context, tx *Transaction) error
	InsertBatch(ctx context.Context, txs []Transaction) error
	// SetReconciled flips the flag, guarded against double reconciliation.
	SetReconciled(ctx context.Context, id uuid.UUID, category *string, when time.Time) error
	ListCandidates(ctx context.Context, t documents.Type) ([]Candidate, error)
}

type Service struct {
	repo   Repository
	cache  *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service. cache may be nil to disable suggestion
// caching.
func NewService(repo Repository, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Create(ctx context.Context, req CreateTransactionRequest) (*Transaction, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	tx, err := transactionFromLine(req.AccountID, ImportLine{
		Date:        req.Date,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
	}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, &tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return &tx, nil
}

// Import bulk-inserts statement lines for one account.
func (s *Service) Import(ctx context.Context, req ImportTransactionsRequest) ([]Transaction, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	now := s.now()
	txs := make([]Transaction, len(req.Transactions))
	for i, line := range req.Transactions {
		tx, err := transactionFromLine(req.AccountID, line, now)
		if err != nil {
			return nil, err
		}
		txs[i] = tx
	}
	if err := s.repo.InsertBatch(ctx, txs); err != nil {
		return nil, fmt.Errorf("import transactions: %w", err)
	}
	s.logger.Info("bank transactions imported",
		slog.String("account", req.AccountID.String()),
		slog.Int("count", len(txs)))
	return txs, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Service) List(ctx context.Context, filter ListTransactionsFilter) ([]Transaction, error) {
	return s.repo.List(ctx, filter)
}

// Reconcile flips a transaction to reconciled and drops its cached
// suggestions.
func (s *Service) Reconcile(ctx context.Context, id uuid.UUID, req ReconcileRequest) (*Transaction, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	tx, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.IsReconciled {
		return nil, ErrAlreadyReconciled
	}
	now := s.now()
	if err := s.repo.SetReconciled(ctx, id, req.Category, now); err != nil {
		return nil, err
	}
	tx.IsReconciled = true
	if req.Category != nil {
		tx.Category = req.Category
	}
	tx.UpdatedAt = now
	s.dropCachedSuggestions(ctx, id)
	return &tx, nil
}

// BulkReconcile reconciles each id independently, counting outcomes rather
// than aborting on the first failure.
func (s *Service) BulkReconcile(ctx context.Context, req BulkReconcileRequest) (*BulkReconcileResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	result := &BulkReconcileResult{}
	for _, id := range req.IDs {
		if _, err := s.Reconcile(ctx, id, ReconcileRequest{}); err != nil {
			result.Failed++
			continue
		}
		result.Reconciled++
	}
	s.logger.Info("bulk reconcile finished",
		slog.Int("reconciled", result.Reconciled),
		slog.Int("failed", result.Failed))
	return result, nil
}

// Suggest ranks open documents against a transaction: invoices for money in,
// bills for money out. Reconciled transactions get an empty list. Results
// are cached briefly per transaction.
func (s *Service) Suggest(ctx context.Context, id uuid.UUID) ([]Suggestion, error) {
	tx, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.IsReconciled {
		return []Suggestion{}, nil
	}
	if cached, ok := s.cachedSuggestions(ctx, id); ok {
		return cached, nil
	}

	docType := documents.TypeInvoice
	if tx.Amount.IsNegative() {
		docType = documents.TypeBill
	}
	candidates, err := s.repo.ListCandidates(ctx, docType)
	if err != nil {
		return nil, err
	}
	suggestions := Score(tx, candidates)
	s.storeCachedSuggestions(ctx, id, suggestions)
	return suggestions, nil
}

func (s *Service) suggestionKey(id uuid.UUID) string {
	return "banking:suggestions:" + id.String()
}

func (s *Service) cachedSuggestions(ctx context.Context, id uuid.UUID) ([]Suggestion, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.suggestionKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("suggestion cache read failed", slog.Any("error", err))
		}
		return nil, false
	}
	var out []Suggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (s *Service) storeCachedSuggestions(ctx context.Context, id uuid.UUID, suggestions []Suggestion) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.suggestionKey(id), raw, suggestionTTL).Err(); err != nil {
		s.logger.Warn("suggestion cache write failed", slog.Any("error", err))
	}
}

func (s *Service) dropCachedSuggestions(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.suggestionKey(id)).Err(); err != nil {
		s.logger.Warn("suggestion cache invalidation failed", slog.Any("error", err))
	}
}

func transactionFromLine(accountID uuid.UUID, line ImportLine, now time.Time) (Transaction, error) {
	date, err := time.Parse("2006-01-02", line.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: invalid date", shared.ErrValidation)
	}
	return Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Date:        date,
		Amount:      decimal.NewFromFloat(line.Amount),
		Description: line.Description,
		Category:    line.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
