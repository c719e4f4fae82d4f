package recurring

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fernbooks/fernbooks/internal/documents"
	"github.com/fernbooks/fernbooks/internal/shared"
)

type memoryRepo struct {
	templates map[uuid.UUID]Template
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Template, error) {
	tpl, ok := r.templates[id]
	if !ok {
		return Template{}, ErrTemplateNotFound
	}
	return tpl, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListTemplatesFilter) ([]Template, error) {
	var out []Template
	for _, tpl := range r.templates {
		if filter.Status != nil && tpl.Status != *filter.Status {
			continue
		}
		out = append(out, tpl)
	}
	return out, nil
}

func (r *memoryRepo) ListDue(ctx context.Context, now time.Time) ([]Template, error) {
	var out []Template
	for _, tpl := range r.templates {
		if tpl.Status == StatusActive && !tpl.NextRunDate.After(now) {
			out = append(out, tpl)
		}
	}
	return out, nil
}

func (r *memoryRepo) Insert(ctx context.Context, tpl *Template) error {
	r.templates[tpl.ID] = *tpl
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, tpl *Template) error {
	if _, ok := r.templates[tpl.ID]; !ok {
		return ErrTemplateNotFound
	}
	r.templates[tpl.ID] = *tpl
	return nil
}

type stubCreator struct {
	created []documents.CreateDocumentRequest
	types   []documents.Type
}

func (c *stubCreator) Create(ctx context.Context, t documents.Type, req documents.CreateDocumentRequest) (*documents.Document, error) {
	c.created = append(c.created, req)
	c.types = append(c.types, t)
	return &documents.Document{
		ID:     uuid.New(),
		Type:   t,
		Number: "INV-0001",
		Status: documents.StatusDraft,
	}, nil
}

func newTestService() (*Service, *memoryRepo, *stubCreator) {
	repo := &memoryRepo{templates: make(map[uuid.UUID]Template)}
	creator := &stubCreator{}
	svc := NewService(repo, creator, slog.New(slog.DiscardHandler))
	svc.WithNow(func() time.Time { return time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC) })
	return svc, repo, creator
}

func monthlyRequest() CreateTemplateRequest {
	qty := 1.0
	return CreateTemplateRequest{
		Name:         "Monthly retainer",
		DocumentType: documents.TypeInvoice,
		ContactID:    uuid.New(),
		Frequency:    FrequencyMonthly,
		NextRunDate:  "2026-03-01",
		LineItems: []documents.LineItemRequest{
			{Description: "Retainer", Quantity: &qty, UnitPrice: 500},
		},
	}
}

func TestCreateTemplateDefaults(t *testing.T) {
	svc, _, _ := newTestService()
	tpl, err := svc.Create(context.Background(), monthlyRequest())
	require.NoError(t, err)
	require.Equal(t, StatusActive, tpl.Status)
	require.Equal(t, documents.DefaultTermsDays, tpl.DaysUntilDue)
	require.Equal(t, "NZD", tpl.Currency)
	require.Equal(t, documents.AmountTypeExclusive, tpl.AmountType)
	require.Zero(t, tpl.TimesGenerated)
}

func TestCreateTemplateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	req := monthlyRequest()
	req.Frequency = "hourly"
	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, shared.ErrValidation)

	req = monthlyRequest()
	req.DocumentType = documents.TypeQuote
	_, err = svc.Create(context.Background(), req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestGenerateDueAdvancesSchedule(t *testing.T) {
	svc, repo, creator := newTestService()
	tpl, err := svc.Create(context.Background(), monthlyRequest())
	require.NoError(t, err)

	count, err := svc.GenerateDue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Len(t, creator.created, 1)
	require.Equal(t, documents.TypeInvoice, creator.types[0])
	require.Equal(t, "2026-03-01", creator.created[0].Date)
	require.Equal(t, "2026-03-31", creator.created[0].DueDate)

	stored := repo.templates[tpl.ID]
	require.Equal(t, 1, stored.TimesGenerated)
	require.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), stored.NextRunDate)
	require.Equal(t, StatusActive, stored.Status)

	// Not due again until April.
	count, err = svc.GenerateDue(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestGenerateDueSkipsPausedAndFuture(t *testing.T) {
	svc, _, creator := newTestService()

	future := monthlyRequest()
	future.NextRunDate = "2026-04-01"
	_, err := svc.Create(context.Background(), future)
	require.NoError(t, err)

	tpl, err := svc.Create(context.Background(), monthlyRequest())
	require.NoError(t, err)
	paused := StatusPaused
	_, err = svc.Update(context.Background(), tpl.ID, UpdateTemplateRequest{Status: &paused})
	require.NoError(t, err)

	count, err := svc.GenerateDue(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
	require.Empty(t, creator.created)
}

func TestGenerateDueCompletesAtEndDate(t *testing.T) {
	svc, repo, _ := newTestService()
	req := monthlyRequest()
	end := "2026-03-20"
	req.EndDate = &end
	tpl, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	count, err := svc.GenerateDue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	stored := repo.templates[tpl.ID]
	require.Equal(t, StatusCompleted, stored.Status)

	_, err = svc.Update(context.Background(), tpl.ID, UpdateTemplateRequest{})
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestFrequencyAdvance(t *testing.T) {
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 1, 22, 0, 0, 0, 0, time.UTC), FrequencyWeekly.Advance(from))
	require.Equal(t, time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC), FrequencyFortnightly.Advance(from))
	require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), FrequencyBimonthly.Advance(from))
	require.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), FrequencyQuarterly.Advance(from))
	require.Equal(t, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC), FrequencyYearly.Advance(from))
}
