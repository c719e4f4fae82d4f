package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fernbooks/fernbooks/internal/documents"
	"github.com/fernbooks/fernbooks/internal/shared"
)

// ErrTemplateNotFound indicates an unknown template id.
var ErrTemplateNotFound = fmt.Errorf("recurring template %w", shared.ErrNotFound)

const dateLayout = "2006-01-02"

// Repository defines data access for templates.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Template, error)
	List(ctx context.Context, filter ListTemplatesFilter) ([]Template, error)
	// ListDue returns active templates whose next run date is not after now.
	ListDue(ctx context.Context, now time.Time) ([]Template, error)
	Insert(ctx context.Context, tpl *Template) error
	Update(ctx context.Context, tpl *Template) error
}

// DocumentCreator is the slice of the document service the generator needs.
type DocumentCreator interface {
	Create(ctx context.Context, t documents.Type, req documents.CreateDocumentRequest) (*documents.Document, error)
}

type Service struct {
	repo   Repository
	docs   DocumentCreator
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, docs DocumentCreator, logger *slog.Logger) *Service {
	return &Service{repo: repo, docs: docs, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Create(ctx context.Context, req CreateTemplateRequest) (*Template, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	nextRun, err := time.Parse(dateLayout, req.NextRunDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid nextRunDate", shared.ErrValidation)
	}
	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid endDate", shared.ErrValidation)
		}
		endDate = &parsed
	}

	amountType := req.AmountType
	if amountType == "" {
		amountType = documents.AmountTypeExclusive
	}
	currency := req.Currency
	if currency == "" {
		currency = "NZD"
	}
	daysUntilDue := documents.DefaultTermsDays
	if req.DaysUntilDue != nil {
		daysUntilDue = *req.DaysUntilDue
	}

	now := s.now()
	tpl := &Template{
		ID:           uuid.New(),
		Name:         req.Name,
		DocumentType: req.DocumentType,
		ContactID:    req.ContactID,
		AmountType:   amountType,
		Currency:     currency,
		Frequency:    req.Frequency,
		NextRunDate:  nextRun,
		EndDate:      endDate,
		DaysUntilDue: daysUntilDue,
		Status:       StatusActive,
		LineItems:    req.LineItems,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, tpl); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	s.logger.Info("recurring template created",
		slog.String("id", tpl.ID.String()),
		slog.String("frequency", string(tpl.Frequency)))
	return tpl, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) (*Template, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl.Status == StatusCompleted {
		return nil, fmt.Errorf("%w: completed templates cannot be changed", shared.ErrBusinessRule)
	}

	if req.Name != nil {
		tpl.Name = *req.Name
	}
	if req.Frequency != nil {
		tpl.Frequency = *req.Frequency
	}
	if req.NextRunDate != nil {
		if tpl.NextRunDate, err = time.Parse(dateLayout, *req.NextRunDate); err != nil {
			return nil, fmt.Errorf("%w: invalid nextRunDate", shared.ErrValidation)
		}
	}
	if req.EndDate != nil {
		parsed, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid endDate", shared.ErrValidation)
		}
		tpl.EndDate = &parsed
	}
	if req.DaysUntilDue != nil {
		tpl.DaysUntilDue = *req.DaysUntilDue
	}
	if req.Status != nil {
		tpl.Status = *req.Status
	}
	if req.LineItems != nil {
		tpl.LineItems = req.LineItems
	}
	tpl.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, &tpl); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return &tpl, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Template, error) {
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *Service) List(ctx context.Context, filter ListTemplatesFilter) ([]Template, error) {
	return s.repo.List(ctx, filter)
}

// GenerateDue creates one draft document for every active template that has
// come due, advancing each template's schedule. Generation goes through the
// document service so numbering and totals follow the normal path. A failure
// on one template is logged and does not block the rest.
func (s *Service) GenerateDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.repo.ListDue(ctx, now)
	if err != nil {
		return 0, err
	}

	generated := 0
	for _, tpl := range due {
		doc, err := s.generate(ctx, &tpl)
		if err != nil {
			s.logger.Error("recurring generation failed",
				slog.String("template", tpl.ID.String()),
				slog.Any("error", err))
			continue
		}
		generated++
		s.logger.Info("recurring document generated",
			slog.String("template", tpl.ID.String()),
			slog.String("number", doc.Number))
	}
	return generated, nil
}

func (s *Service) generate(ctx context.Context, tpl *Template) (*documents.Document, error) {
	runDate := tpl.NextRunDate
	doc, err := s.docs.Create(ctx, tpl.DocumentType, documents.CreateDocumentRequest{
		ContactID:  tpl.ContactID,
		Date:       runDate.Format(dateLayout),
		DueDate:    runDate.AddDate(0, 0, tpl.DaysUntilDue).Format(dateLayout),
		AmountType: tpl.AmountType,
		Currency:   tpl.Currency,
		LineItems:  tpl.LineItems,
	})
	if err != nil {
		return nil, err
	}

	tpl.TimesGenerated++
	tpl.NextRunDate = tpl.Frequency.Advance(runDate)
	if tpl.EndDate != nil && tpl.NextRunDate.After(*tpl.EndDate) {
		tpl.Status = StatusCompleted
	}
	tpl.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return doc, nil
}
