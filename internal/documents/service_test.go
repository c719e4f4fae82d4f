package documents

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fernbooks/fernbooks/internal/shared"
)

type memoryRepo struct {
	docs map[uuid.UUID]Document
	seq  map[Type]int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		docs: make(map[uuid.UUID]Document),
		seq:  make(map[Type]int64),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	var out []Document
	for _, doc := range r.docs {
		if doc.Type != filter.Type {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		if filter.ContactID != nil && doc.ContactID != *filter.ContactID {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (t *memoryTx) GetForUpdate(ctx context.Context, id uuid.UUID) (Document, error) {
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) Insert(ctx context.Context, doc *Document) error {
	t.repo.docs[doc.ID] = *doc
	return nil
}

func (t *memoryTx) ReplaceLineItems(ctx context.Context, doc *Document) error {
	return nil
}

func (t *memoryTx) UpdateState(ctx context.Context, doc *Document, expectedVersion int64) error {
	current, ok := t.repo.docs[doc.ID]
	if !ok {
		return ErrDocumentNotFound
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}
	doc.Version = expectedVersion + 1
	t.repo.docs[doc.ID] = *doc
	return nil
}

func (t *memoryTx) ListOpen(ctx context.Context, docType Type, contactID uuid.UUID) ([]Document, error) {
	var out []Document
	for _, doc := range t.repo.docs {
		if doc.Type == docType && doc.ContactID == contactID &&
			doc.Status == StatusApproved && doc.AmountDue.IsPositive() {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (t *memoryTx) NextNumber(ctx context.Context, docType Type) (string, error) {
	t.repo.seq[docType]++
	return fmt.Sprintf("%s-%04d", docType.NumberPrefix(), t.repo.seq[docType]), nil
}

type stubContacts struct {
	names map[uuid.UUID]string
}

func (s stubContacts) GetName(ctx context.Context, id uuid.UUID) (string, error) {
	name, ok := s.names[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return name, nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, uuid.UUID) {
	t.Helper()
	repo := newMemoryRepo()
	contactID := uuid.New()
	contacts := stubContacts{names: map[uuid.UUID]string{contactID: "Kauri Timber Ltd"}}
	svc := NewService(repo, contacts, slog.New(slog.DiscardHandler))
	svc.WithNow(func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) })
	return svc, repo, contactID
}

func floatPtr(f float64) *float64 { return &f }

func invoiceRequest(contactID uuid.UUID) CreateDocumentRequest {
	return CreateDocumentRequest{
		ContactID: contactID,
		Date:      "2026-03-01",
		DueDate:   "2026-03-31",
		LineItems: []LineItemRequest{
			{Description: "Decking timber", Quantity: floatPtr(10), UnitPrice: 100, TaxRate: floatPtr(15)},
		},
	}
}

func TestCreateInvoice(t *testing.T) {
	svc, _, contactID := newTestService(t)

	doc, err := svc.Create(context.Background(), TypeInvoice, invoiceRequest(contactID))
	require.NoError(t, err)
	require.Equal(t, "INV-0001", doc.Number)
	require.Equal(t, StatusDraft, doc.Status)
	require.Equal(t, "Kauri Timber Ltd", doc.ContactName)
	requireAmount(t, "1000", doc.SubTotal)
	requireAmount(t, "150", doc.TotalTax)
	requireAmount(t, "1150", doc.Total)
	requireAmount(t, "1150", doc.AmountDue)
	require.True(t, doc.AmountPaid.IsZero())
	require.Len(t, doc.LineItems, 1)

	second, err := svc.Create(context.Background(), TypeInvoice, invoiceRequest(contactID))
	require.NoError(t, err)
	require.Equal(t, "INV-0002", second.Number)
}

func TestCreateUnknownContact(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), TypeInvoice, invoiceRequest(uuid.New()))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateCreditNoteSetsRemainingCredit(t *testing.T) {
	svc, _, contactID := newTestService(t)
	req := invoiceRequest(contactID)
	req.CreditKind = CreditKindSales
	doc, err := svc.Create(context.Background(), TypeCreditNote, req)
	require.NoError(t, err)
	require.Equal(t, "CN-0001", doc.Number)
	requireAmount(t, "1150", doc.RemainingCredit)
}

func TestUpdateRecalculatesTotals(t *testing.T) {
	svc, _, contactID := newTestService(t)
	doc, err := svc.Create(context.Background(), TypeInvoice, invoiceRequest(contactID))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), TypeInvoice, doc.ID, UpdateDocumentRequest{
		Version: doc.Version,
		LineItems: []LineItemRequest{
			{Description: "Decking timber", Quantity: floatPtr(5), UnitPrice: 200, TaxRate: floatPtr(15)},
			{Description: "Fixings", Quantity: floatPtr(3), UnitPrice: 50, TaxRate: floatPtr(15), Discount: 10},
		},
	})
	require.NoError(t, err)
	requireAmount(t, "1135", updated.SubTotal)
	requireAmount(t, "170.25", updated.TotalTax)
	requireAmount(t, "1305.25", updated.Total)
	requireAmount(t, "1305.25", updated.AmountDue)
	require.Equal(t, doc.Version+1, updated.Version)
}

func TestUpdateLockedOutsideDraft(t *testing.T) {
	svc, _, contactID := newTestService(t)
	doc, err := svc.Create(context.Background(), TypeInvoice, invoiceRequest(contactID))
	require.NoError(t, err)

	doc, err = svc.TransitionStatus(context.Background(), TypeInvoice, doc.ID,
		TransitionRequest{Status: StatusSubmitted, Version: doc.Version})
	require.NoError(t, err)

	note := "late change"
	_, err = svc.Update(context.Background(), TypeInvoice, doc.ID, UpdateDocumentRequest{
		Version: doc.Version,
		Notes:   &note,
	})
	var locked *EditLockedError
	require.ErrorAs(t, err, &locked)
	require.Contains(t, err.Error(), "only draft invoices can be edited")
}

func TestUpdateStaleVersion(t *testing.T) {
	svc, _, contactID := newTestService(t)
	doc, err := svc.Create(context.Background(), TypeInvoice, invoiceRequest(contactID))
	require.NoError(t, err)

	note := "note"
	_, err = svc.Update(context.Background(), TypeInvoice, doc.ID, UpdateDocumentRequest{
		Version: doc.Version + 5,
		Notes:   &note,
	})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestTransitionDraftDirectlyToPaid(t *testing.T) {
	svc, _, contactID := newTestService(t)
	doc, err := svc.Create(context.Background(), TypeInvoice, invoiceRequest(contactID))
	require.NoError(t, err)

	_, err = svc.TransitionStatus(context.Background(), TypeInvoice, doc.ID,
		TransitionRequest{Status: StatusPaid, Version: doc.Version})
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, StatusDraft, terr.From)
	require.Equal(t, StatusPaid, terr.To)
}

func TestTransitionIntoConvertedStatusRejected(t *testing.T) {
	svc, _, contactID := newTestService(t)
	doc, err := svc.Create(context.Background(), TypeQuote, invoiceRequest(contactID))
	require.NoError(t, err)
	doc, err = svc.TransitionStatus(context.Background(), TypeQuote, doc.ID,
		TransitionRequest{Status: StatusSent, Version: doc.Version})
	require.NoError(t, err)
	doc, err = svc.TransitionStatus(context.Background(), TypeQuote, doc.ID,
		TransitionRequest{Status: StatusAccepted, Version: doc.Version})
	require.NoError(t, err)

	_, err = svc.TransitionStatus(context.Background(), TypeQuote, doc.ID,
		TransitionRequest{Status: StatusInvoiced, Version: doc.Version})
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestConvertQuote(t *testing.T) {
	svc, repo, contactID := newTestService(t)
	quote, err := svc.Create(context.Background(), TypeQuote, invoiceRequest(contactID))
	require.NoError(t, err)
	quote, err = svc.TransitionStatus(context.Background(), TypeQuote, quote.ID,
		TransitionRequest{Status: StatusSent, Version: quote.Version})
	require.NoError(t, err)
	quote, err = svc.TransitionStatus(context.Background(), TypeQuote, quote.ID,
		TransitionRequest{Status: StatusAccepted, Version: quote.Version})
	require.NoError(t, err)

	invoice, err := svc.Convert(context.Background(), TypeQuote, quote.ID)
	require.NoError(t, err)
	require.Equal(t, TypeInvoice, invoice.Type)
	require.Equal(t, "INV-0001", invoice.Number)
	require.Equal(t, StatusDraft, invoice.Status)
	requireAmount(t, "1150", invoice.Total)
	require.Equal(t, invoice.Date.AddDate(0, 0, DefaultTermsDays), invoice.DueDate)

	source := repo.docs[quote.ID]
	require.Equal(t, StatusInvoiced, source.Status)
	require.NotNil(t, source.ConvertedDocumentID)
	require.Equal(t, invoice.ID, *source.ConvertedDocumentID)

	_, err = svc.Convert(context.Background(), TypeQuote, quote.ID)
	require.ErrorIs(t, err, ErrAlreadyConverted)
}

func TestConvertRequiresPreTerminalStatus(t *testing.T) {
	svc, _, contactID := newTestService(t)
	po, err := svc.Create(context.Background(), TypePurchaseOrder, invoiceRequest(contactID))
	require.NoError(t, err)

	_, err = svc.Convert(context.Background(), TypePurchaseOrder, po.ID)
	require.ErrorIs(t, err, shared.ErrBusinessRule)
	require.Contains(t, err.Error(), "only approved purchase orders can be converted")
}

func TestListOverdue(t *testing.T) {
	svc, repo, contactID := newTestService(t)
	doc, err := svc.Create(context.Background(), TypeInvoice, invoiceRequest(contactID))
	require.NoError(t, err)

	// Push due date into the past and approve so it is not filtered out.
	stored := repo.docs[doc.ID]
	stored.Status = StatusApproved
	stored.DueDate = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo.docs[doc.ID] = stored

	overdue, err := svc.ListOverdue(context.Background(), TypeInvoice, "")
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, 37, overdue[0].DaysOverdue)

	banded, err := svc.ListOverdue(context.Background(), TypeInvoice, "1-30")
	require.NoError(t, err)
	require.Empty(t, banded)

	banded, err = svc.ListOverdue(context.Background(), TypeInvoice, "31-60")
	require.NoError(t, err)
	require.Len(t, banded, 1)
}
