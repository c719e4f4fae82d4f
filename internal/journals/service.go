package journals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fernbooks/fernbooks/internal/money"
	"github.com/fernbooks/fernbooks/internal/shared"
)

// ErrJournalNotFound indicates an unknown journal id.
var ErrJournalNotFound = fmt.Errorf("journal %w", shared.ErrNotFound)

// Repository defines data access for journals.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Journal, error)
	List(ctx context.Context) ([]Journal, error)
	Insert(ctx context.Context, j *Journal) error
	Replace(ctx context.Context, j *Journal) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Create persists a journal only when its lines balance. Nothing is written
// on a failed check.
func (s *Service) Create(ctx context.Context, req CreateJournalRequest) (*Journal, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", shared.ErrValidation)
	}

	now := s.now()
	j := &Journal{
		ID:        uuid.New(),
		Date:      date,
		Narration: req.Narration,
		CreatedAt: now,
		UpdatedAt: now,
	}
	j.Lines = buildLines(j.ID, req.Lines)
	if err := ValidateBalance(j.Lines); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, j); err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	s.logger.Info("journal created", slog.String("id", j.ID.String()))
	return j, nil
}

// Update replaces a journal's fields, running the balance check again when
// the lines change.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateJournalRequest) (*Journal, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		if j.Date, err = time.Parse("2006-01-02", *req.Date); err != nil {
			return nil, fmt.Errorf("%w: invalid date", shared.ErrValidation)
		}
	}
	if req.Narration != nil {
		j.Narration = *req.Narration
	}
	if req.Lines != nil {
		j.Lines = buildLines(j.ID, req.Lines)
		if err := ValidateBalance(j.Lines); err != nil {
			return nil, err
		}
	}
	j.UpdatedAt = s.now()

	if err := s.repo.Replace(ctx, &j); err != nil {
		return nil, fmt.Errorf("update journal: %w", err)
	}
	return &j, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Journal, error) {
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *Service) List(ctx context.Context) ([]Journal, error) {
	return s.repo.List(ctx)
}

func buildLines(journalID uuid.UUID, reqs []JournalLineRequest) []JournalLine {
	lines := make([]JournalLine, len(reqs))
	for i, r := range reqs {
		lines[i] = JournalLine{
			ID:          uuid.New(),
			JournalID:   journalID,
			AccountCode: r.AccountCode,
			Description: r.Description,
			Debit:       money.Round2(decimal.NewFromFloat(r.Debit)),
			Credit:      money.Round2(decimal.NewFromFloat(r.Credit)),
		}
	}
	return lines
}
