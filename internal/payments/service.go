package payments

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fernbooks/fernbooks/internal/documents"
	"github.com/fernbooks/fernbooks/internal/shared"
)

var (
	// ErrPaymentTarget indicates the request did not name exactly one of
	// invoiceId and billId.
	ErrPaymentTarget = fmt.Errorf("%w: exactly one of invoiceId and billId is required", shared.ErrValidation)
	// ErrNotApproved indicates a payment or allocation against a document
	// that is not in approved status.
	ErrNotApproved = fmt.Errorf("%w: document is not approved", shared.ErrBusinessRule)
	// ErrNonPositiveAmount indicates a zero or negative amount.
	ErrNonPositiveAmount = fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	// ErrExceedsAmountDue indicates an amount above the target's balance.
	ErrExceedsAmountDue = fmt.Errorf("%w: amount exceeds amount due", shared.ErrBusinessRule)
	// ErrExceedsRemainingCredit indicates an amount above the note's credit.
	ErrExceedsRemainingCredit = fmt.Errorf("%w: amount exceeds remaining credit", shared.ErrBusinessRule)
)

// Repository defines data access for payments and the documents they settle.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListPayments(ctx context.Context, filter ListPaymentsFilter) ([]Payment, error)
}

// TxRepository groups the reads and writes of one settlement operation.
type TxRepository interface {
	GetDocumentForUpdate(ctx context.Context, id uuid.UUID) (documents.Document, error)
	// ListAllocatable returns the contact's approved documents of the given
	// family with a positive balance.
	ListAllocatable(ctx context.Context, t documents.Type, contactID uuid.UUID) ([]documents.Document, error)
	InsertPayment(ctx context.Context, p *Payment) error
	UpdateDocumentState(ctx context.Context, doc *documents.Document, expectedVersion int64) error
}

// PaymentResult is the outcome of recording a payment.
type PaymentResult struct {
	Payment  Payment            `json:"payment"`
	Document documents.Document `json:"document"`
}

// ApplyResult is the outcome of applying credit to a single document.
type ApplyResult struct {
	CreditNote documents.Document `json:"creditNote"`
	Document   documents.Document `json:"document"`
}

// AllocationResult is the outcome of auto-allocating a credit note.
type AllocationResult struct {
	Allocations []Allocation       `json:"allocations"`
	CreditNote  documents.Document `json:"creditNote"`
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// RecordPayment applies a payment to an approved invoice or bill. Partial
// payments are supported; when the balance reaches exactly zero the document
// transitions to paid.
func (s *Service) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if (req.InvoiceID == nil) == (req.BillID == nil) {
		return nil, ErrPaymentTarget
	}

	targetID := req.InvoiceID
	targetType := documents.TypeInvoice
	if req.BillID != nil {
		targetID = req.BillID
		targetType = documents.TypeBill
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", shared.ErrValidation)
	}
	amount := decimal.NewFromFloat(req.Amount)

	var result PaymentResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetDocumentForUpdate(ctx, *targetID)
		if err != nil {
			return err
		}
		if doc.Type != targetType {
			return documents.ErrDocumentNotFound
		}
		if err := settle(&doc, amount); err != nil {
			return err
		}

		payment := Payment{
			ID:        uuid.New(),
			InvoiceID: req.InvoiceID,
			BillID:    req.BillID,
			Amount:    amount,
			Date:      date,
			Reference: req.Reference,
			CreatedAt: s.now(),
		}
		if err := tx.InsertPayment(ctx, &payment); err != nil {
			return err
		}
		doc.UpdatedAt = s.now()
		if err := tx.UpdateDocumentState(ctx, &doc, doc.Version); err != nil {
			return err
		}
		result = PaymentResult{Payment: payment, Document: doc}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		slog.String("document", targetID.String()),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("status", string(result.Document.Status)))
	return &result, nil
}

// ApplyCreditNote applies part of an approved credit note against one
// approved document. When the remaining credit reaches zero the note
// transitions to applied.
func (s *Service) ApplyCreditNote(ctx context.Context, noteID uuid.UUID, req ApplyCreditRequest) (*ApplyResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	amount := decimal.NewFromFloat(req.Amount)

	var result ApplyResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		note, err := s.loadApprovedNote(ctx, tx, noteID)
		if err != nil {
			return err
		}
		if !amount.IsPositive() {
			return ErrNonPositiveAmount
		}
		if amount.GreaterThan(note.RemainingCredit) {
			return ErrExceedsRemainingCredit
		}

		target, err := tx.GetDocumentForUpdate(ctx, req.DocumentID)
		if err != nil {
			return err
		}
		if target.Type != allocationTarget(note) {
			return documents.ErrDocumentNotFound
		}
		if err := settle(&target, amount); err != nil {
			return err
		}
		target.UpdatedAt = s.now()
		if err := tx.UpdateDocumentState(ctx, &target, target.Version); err != nil {
			return err
		}

		if err := s.consumeCredit(ctx, tx, &note, amount); err != nil {
			return err
		}
		result = ApplyResult{CreditNote: note, Document: target}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit applied",
		slog.String("creditNote", noteID.String()),
		slog.String("document", req.DocumentID.String()),
		slog.String("amount", amount.StringFixed(2)))
	return &result, nil
}

// AutoAllocate spreads an approved credit note across the contact's open
// documents oldest first, ties broken by creation order. A note with credit
// left but no open documents yields an empty allocation list, not an error.
func (s *Service) AutoAllocate(ctx context.Context, noteID uuid.UUID) (*AllocationResult, error) {
	var result AllocationResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		note, err := s.loadApprovedNote(ctx, tx, noteID)
		if err != nil {
			return err
		}

		open, err := tx.ListAllocatable(ctx, allocationTarget(note), note.ContactID)
		if err != nil {
			return err
		}
		sort.SliceStable(open, func(i, j int) bool {
			if !open[i].Date.Equal(open[j].Date) {
				return open[i].Date.Before(open[j].Date)
			}
			return open[i].CreatedAt.Before(open[j].CreatedAt)
		})

		allocations := make([]Allocation, 0)
		remaining := note.RemainingCredit
		for i := range open {
			if !remaining.IsPositive() {
				break
			}
			doc := open[i]
			amount := decimal.Min(remaining, doc.AmountDue)
			if err := settle(&doc, amount); err != nil {
				return err
			}
			doc.UpdatedAt = s.now()
			if err := tx.UpdateDocumentState(ctx, &doc, doc.Version); err != nil {
				return err
			}
			allocations = append(allocations, Allocation{
				DocumentID: doc.ID,
				Number:     doc.Number,
				Amount:     amount,
			})
			remaining = remaining.Sub(amount)
		}

		if err := s.consumeCredit(ctx, tx, &note, note.RemainingCredit.Sub(remaining)); err != nil {
			return err
		}
		result = AllocationResult{Allocations: allocations, CreditNote: note}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit note auto-allocated",
		slog.String("creditNote", noteID.String()),
		slog.Int("allocations", len(result.Allocations)),
		slog.String("remaining", result.CreditNote.RemainingCredit.StringFixed(2)))
	return &result, nil
}

// List returns payments, optionally for one document.
func (s *Service) List(ctx context.Context, filter ListPaymentsFilter) ([]Payment, error) {
	return s.repo.ListPayments(ctx, filter)
}

func (s *Service) loadApprovedNote(ctx context.Context, tx TxRepository, id uuid.UUID) (documents.Document, error) {
	note, err := tx.GetDocumentForUpdate(ctx, id)
	if err != nil {
		return documents.Document{}, err
	}
	if note.Type != documents.TypeCreditNote {
		return documents.Document{}, documents.ErrDocumentNotFound
	}
	if note.Status != documents.StatusApproved {
		return documents.Document{}, fmt.Errorf("%w: credit note is not approved", shared.ErrBusinessRule)
	}
	return note, nil
}

func (s *Service) consumeCredit(ctx context.Context, tx TxRepository, note *documents.Document, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	note.RemainingCredit = note.RemainingCredit.Sub(amount)
	if note.RemainingCredit.IsZero() {
		if err := documents.Transition(note, documents.StatusApplied); err != nil {
			return err
		}
	}
	note.UpdatedAt = s.now()
	return tx.UpdateDocumentState(ctx, note, note.Version)
}

// settle applies an amount to an approved document's balance, transitioning
// it to paid at exactly zero due.
func settle(doc *documents.Document, amount decimal.Decimal) error {
	if doc.Status != documents.StatusApproved {
		return ErrNotApproved
	}
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if amount.GreaterThan(doc.AmountDue) {
		return ErrExceedsAmountDue
	}
	doc.AmountPaid = doc.AmountPaid.Add(amount)
	doc.AmountDue = doc.AmountDue.Sub(amount)
	if doc.AmountDue.IsZero() {
		return documents.Transition(doc, documents.StatusPaid)
	}
	return nil
}

func allocationTarget(note documents.Document) documents.Type {
	if note.CreditKind != nil && *note.CreditKind == documents.CreditKindPurchase {
		return documents.TypeBill
	}
	return documents.TypeInvoice
}
