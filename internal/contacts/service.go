package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fernbooks/fernbooks/internal/shared"
)

// ErrContactNotFound indicates an unknown contact id.
var ErrContactNotFound = fmt.Errorf("contact %w", shared.ErrNotFound)

// Repository defines data access for contacts.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Contact, error)
	List(ctx context.Context, filter ListContactsFilter) ([]Contact, error)
	Insert(ctx context.Context, c *Contact) error
	Update(ctx context.Context, c *Contact) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateContactRequest) (*Contact, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	country := req.Country
	if country == "" {
		country = "NZ"
	}
	now := s.now()
	c := &Contact{
		ID:         uuid.New(),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		TaxNumber:  req.TaxNumber,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    country,
		IsCustomer: req.IsCustomer,
		IsSupplier: req.IsSupplier,
		IsActive:   true,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	s.logger.Info("contact created", slog.String("id", c.ID.String()), slog.String("name", c.Name))
	return c, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateContactRequest) (*Contact, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.TaxNumber != nil {
		c.TaxNumber = req.TaxNumber
	}
	if req.Address != nil {
		c.Address = req.Address
	}
	if req.City != nil {
		c.City = req.City
	}
	if req.PostalCode != nil {
		c.PostalCode = req.PostalCode
	}
	if req.Country != nil {
		c.Country = *req.Country
	}
	if req.IsCustomer != nil {
		c.IsCustomer = *req.IsCustomer
	}
	if req.IsSupplier != nil {
		c.IsSupplier = *req.IsSupplier
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, &c); err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return &c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Contact, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) List(ctx context.Context, filter ListContactsFilter) ([]Contact, error) {
	return s.repo.List(ctx, filter)
}

// GetName resolves a contact id to its display name. Documents snapshot this
// at creation so later renames do not rewrite history.
func (s *Service) GetName(ctx context.Context, id uuid.UUID) (string, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}
