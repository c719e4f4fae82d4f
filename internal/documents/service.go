package documents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fernbooks/fernbooks/internal/shared"
)

var (
	// ErrDocumentNotFound indicates an unknown document id.
	ErrDocumentNotFound = fmt.Errorf("document %w", shared.ErrNotFound)
	// ErrContactNotFound indicates the referenced contact does not exist.
	ErrContactNotFound = fmt.Errorf("contact %w", shared.ErrNotFound)
	// ErrVersionConflict indicates a stale document version on a mutation.
	ErrVersionConflict = fmt.Errorf("document version %w", shared.ErrConflict)
	// ErrAlreadyConverted indicates a second conversion attempt on a source.
	ErrAlreadyConverted = fmt.Errorf("%w: document already converted", shared.ErrBusinessRule)
)

// ListFilter narrows List results.
type ListFilter struct {
	Type      Type
	Status    *Status
	ContactID *uuid.UUID
}

// Repository defines data access for documents.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (Document, error)
	List(ctx context.Context, filter ListFilter) ([]Document, error)
}

// TxRepository groups the operations that must share one transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (Document, error)
	Insert(ctx context.Context, doc *Document) error
	ReplaceLineItems(ctx context.Context, doc *Document) error
	// UpdateState persists header fields (status, totals, payment and
	// allocation fields) guarded by the expected version, bumping it.
	UpdateState(ctx context.Context, doc *Document, expectedVersion int64) error
	// NextNumber atomically reserves the family's next sequence value.
	// Numbers are monotonic per type and never reused, even after deletion.
	NextNumber(ctx context.Context, t Type) (string, error)
	// ListOpen returns the contact's approved documents of the family with a
	// positive balance, locked for update, oldest first.
	ListOpen(ctx context.Context, t Type, contactID uuid.UUID) ([]Document, error)
}

// ContactDirectory is the persistence collaborator for contact lookups.
type ContactDirectory interface {
	GetName(ctx context.Context, id uuid.UUID) (string, error)
}

// Service implements document creation, editing, lifecycle transitions and
// conversion on top of the calculator and state machine.
type Service struct {
	repo     Repository
	contacts ContactDirectory
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, contacts ContactDirectory, logger *slog.Logger) *Service {
	return &Service{repo: repo, contacts: contacts, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create builds a draft document of the given family: totals through the
// calculator, contact snapshot, and an atomically reserved auto-number.
func (s *Service) Create(ctx context.Context, t Type, req CreateDocumentRequest) (*Document, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	contactName, err := s.contacts.GetName(ctx, req.ContactID)
	if err != nil {
		return nil, ErrContactNotFound
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	dueDate := date.AddDate(0, 0, DefaultTermsDays)
	if req.DueDate != "" {
		if dueDate, err = parseDate(req.DueDate); err != nil {
			return nil, err
		}
	}

	amountType := req.AmountType
	if amountType == "" {
		amountType = AmountTypeExclusive
	}
	currency := req.Currency
	if currency == "" {
		currency = "NZD"
	}

	inputs := make([]LineInput, len(req.LineItems))
	for i, li := range req.LineItems {
		inputs[i] = li.Input()
	}
	totals, err := CalcTotals(inputs, amountType)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc := &Document{
		ID:          uuid.New(),
		Type:        t,
		ContactID:   req.ContactID,
		ContactName: contactName,
		Status:      StatusDraft,
		AmountType:  amountType,
		Currency:    currency,
		Date:        date,
		DueDate:     dueDate,
		Reference:   req.Reference,
		Notes:       req.Notes,
		SubTotal:    totals.SubTotal,
		TotalTax:    totals.TotalTax,
		Total:       totals.Total,
		AmountPaid:  decimal.Zero,
		AmountDue:   totals.Total,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t == TypeCreditNote {
		kind := req.CreditKind
		if kind == "" {
			kind = CreditKindSales
		}
		doc.CreditKind = &kind
		doc.RemainingCredit = totals.Total
	}
	doc.LineItems = buildLineItems(doc.ID, req.LineItems, totals.PerLine)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, t)
		if err != nil {
			return err
		}
		doc.Number = number
		return tx.Insert(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		slog.String("type", string(t)),
		slog.String("number", doc.Number),
		slog.String("id", doc.ID.String()))
	return doc, nil
}

// Update mutates a draft document. Non-draft documents are locked: only the
// status field and payment/allocation fields may change after draft, through
// their dedicated operations.
func (s *Service) Update(ctx context.Context, t Type, id uuid.UUID, req UpdateDocumentRequest) (*Document, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var updated Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc.Type != t {
			return ErrDocumentNotFound
		}
		if doc.Status != StatusDraft {
			return &EditLockedError{Type: doc.Type, Status: doc.Status}
		}

		if req.ContactID != nil {
			name, err := s.contacts.GetName(ctx, *req.ContactID)
			if err != nil {
				return ErrContactNotFound
			}
			doc.ContactID = *req.ContactID
			doc.ContactName = name
		}
		if req.Date != nil {
			if doc.Date, err = parseDate(*req.Date); err != nil {
				return err
			}
		}
		if req.DueDate != nil {
			if doc.DueDate, err = parseDate(*req.DueDate); err != nil {
				return err
			}
		}
		if req.AmountType != nil {
			doc.AmountType = *req.AmountType
		}
		if req.Currency != nil {
			doc.Currency = *req.Currency
		}
		if req.Reference != nil {
			doc.Reference = req.Reference
		}
		if req.Notes != nil {
			doc.Notes = req.Notes
		}

		if req.LineItems != nil {
			inputs := make([]LineInput, len(req.LineItems))
			for i, li := range req.LineItems {
				inputs[i] = li.Input()
			}
			totals, err := CalcTotals(inputs, doc.AmountType)
			if err != nil {
				return err
			}
			doc.SubTotal = totals.SubTotal
			doc.TotalTax = totals.TotalTax
			doc.Total = totals.Total
			doc.AmountDue = totals.Total.Sub(doc.AmountPaid)
			if doc.Type == TypeCreditNote {
				doc.RemainingCredit = totals.Total
			}
			doc.LineItems = buildLineItems(doc.ID, req.LineItems, totals.PerLine)
			if err := tx.ReplaceLineItems(ctx, &doc); err != nil {
				return err
			}
		}

		doc.UpdatedAt = s.now()
		if err := tx.UpdateState(ctx, &doc, req.Version); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// TransitionStatus applies a lifecycle transition. Converted terminal states
// (quote -> invoiced, purchase order -> billed) are reachable only through
// Convert, which creates the target document in the same transaction; a bare
// status request into them would orphan the conversion. A credit note reaches
// applied only when its remaining credit is zero.
func (s *Service) TransitionStatus(ctx context.Context, t Type, id uuid.UUID, req TransitionRequest) (*Document, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var updated Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc.Type != t {
			return ErrDocumentNotFound
		}

		if _, ok := doc.Type.ConversionTarget(); ok && req.Status == ConvertedStatus(doc.Type) {
			return fmt.Errorf("%w: %s must be converted, not transitioned, to %s",
				shared.ErrBusinessRule, doc.Type.Label(), req.Status)
		}
		if doc.Type == TypeCreditNote && req.Status == StatusApplied && doc.RemainingCredit.IsPositive() {
			return fmt.Errorf("%w: credit note still has %s remaining credit",
				shared.ErrBusinessRule, doc.RemainingCredit.StringFixed(2))
		}

		if err := Transition(&doc, req.Status); err != nil {
			return err
		}
		doc.UpdatedAt = s.now()
		if err := tx.UpdateState(ctx, &doc, req.Version); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document transitioned",
		slog.String("id", id.String()),
		slog.String("status", string(updated.Status)))
	return &updated, nil
}

// Convert creates the target draft document from an accepted quote or an
// approved purchase order, and stamps the source with the new id and its
// terminal status. Both writes share one transaction: no orphan conversions.
func (s *Service) Convert(ctx context.Context, t Type, id uuid.UUID) (*Document, error) {
	targetType, ok := t.ConversionTarget()
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot be converted", shared.ErrBusinessRule, t.Label())
	}
	requiredStatus, _ := ConversionSource(t)

	var created Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		source, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if source.Type != t {
			return ErrDocumentNotFound
		}
		if source.ConvertedDocumentID != nil {
			return ErrAlreadyConverted
		}
		if source.Status != requiredStatus {
			return fmt.Errorf("%w: only %s %ss can be converted",
				shared.ErrBusinessRule, requiredStatus, t.Label())
		}

		// Lines are recalculated through the calculator with the target's
		// defaults rather than copied verbatim.
		inputs := make([]LineInput, len(source.LineItems))
		lineReqs := make([]LineItemRequest, len(source.LineItems))
		for i, li := range source.LineItems {
			inputs[i] = LineInput{
				Quantity:  li.Quantity,
				UnitPrice: li.UnitPrice,
				Discount:  li.Discount,
				TaxRate:   li.TaxRate,
			}
			qty := li.Quantity.InexactFloat64()
			rate := li.TaxRate.InexactFloat64()
			lineReqs[i] = LineItemRequest{
				Description: li.Description,
				ProductID:   li.ProductID,
				Quantity:    &qty,
				UnitPrice:   li.UnitPrice.InexactFloat64(),
				Discount:    li.Discount.InexactFloat64(),
				TaxRate:     &rate,
			}
		}
		totals, err := CalcTotals(inputs, AmountTypeExclusive)
		if err != nil {
			return err
		}

		number, err := tx.NextNumber(ctx, targetType)
		if err != nil {
			return err
		}

		now := s.now()
		target := Document{
			ID:          uuid.New(),
			Type:        targetType,
			Number:      number,
			ContactID:   source.ContactID,
			ContactName: source.ContactName,
			Status:      StatusDraft,
			AmountType:  AmountTypeExclusive,
			Currency:    source.Currency,
			Date:        now,
			DueDate:     now.AddDate(0, 0, DefaultTermsDays),
			Reference:   source.Reference,
			SubTotal:    totals.SubTotal,
			TotalTax:    totals.TotalTax,
			Total:       totals.Total,
			AmountPaid:  decimal.Zero,
			AmountDue:   totals.Total,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		target.LineItems = buildLineItems(target.ID, lineReqs, totals.PerLine)
		if err := tx.Insert(ctx, &target); err != nil {
			return err
		}

		source.ConvertedDocumentID = &target.ID
		source.Status = ConvertedStatus(t)
		source.UpdatedAt = now
		if err := tx.UpdateState(ctx, &source, source.Version); err != nil {
			return err
		}

		created = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document converted",
		slog.String("source", id.String()),
		slog.String("target", created.ID.String()),
		slog.String("number", created.Number))
	return &created, nil
}

// Get fetches a document of the given family with its line items.
func (s *Service) Get(ctx context.Context, t Type, id uuid.UUID) (*Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Type != t {
		return nil, ErrDocumentNotFound
	}
	return &doc, nil
}

// List returns documents of a family, optionally filtered.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	return s.repo.List(ctx, filter)
}

// OverdueDocument pairs a document with how many whole days it is past due.
type OverdueDocument struct {
	Document
	DaysOverdue int `json:"daysOverdue"`
}

// ListOverdue returns unpaid, unvoided documents past their due date,
// optionally restricted to an aging band ("1-30", "31-60", "60+").
func (s *Service) ListOverdue(ctx context.Context, t Type, band string) ([]OverdueDocument, error) {
	docs, err := s.repo.List(ctx, ListFilter{Type: t})
	if err != nil {
		return nil, err
	}
	today := s.now().Truncate(24 * time.Hour)
	out := make([]OverdueDocument, 0)
	for _, doc := range docs {
		if doc.Status == StatusPaid || doc.Status == StatusVoided {
			continue
		}
		due := doc.DueDate.Truncate(24 * time.Hour)
		if !due.Before(today) {
			continue
		}
		days := int(today.Sub(due).Hours() / 24)
		switch band {
		case "1-30":
			if days < 1 || days > 30 {
				continue
			}
		case "31-60":
			if days < 31 || days > 60 {
				continue
			}
		case "60+":
			if days <= 60 {
				continue
			}
		}
		out = append(out, OverdueDocument{Document: doc, DaysOverdue: days})
	}
	return out, nil
}

func buildLineItems(docID uuid.UUID, reqs []LineItemRequest, perLine []LineTotals) []LineItem {
	items := make([]LineItem, len(reqs))
	for i, r := range reqs {
		in := r.Input()
		items[i] = LineItem{
			ID:          uuid.New(),
			DocumentID:  docID,
			ProductID:   r.ProductID,
			Description: r.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Discount:    in.Discount,
			TaxRate:     in.TaxRate,
			LineAmount:  perLine[i].LineAmount,
			TaxAmount:   perLine[i].TaxAmount,
		}
	}
	return items
}
