package recurring

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fernbooks/fernbooks/internal/documents"
	"github.com/fernbooks/fernbooks/internal/shared"
)

var validate = validator.New()

type CreateTemplateRequest struct {
	Name         string                      `json:"name" validate:"required,max=200"`
	DocumentType documents.Type              `json:"documentType" validate:"required,oneof=invoice bill"`
	ContactID    uuid.UUID                   `json:"contactId" validate:"required"`
	AmountType   documents.AmountType        `json:"amountType" validate:"omitempty,oneof=exclusive inclusive no_tax"`
	Currency     string                      `json:"currency" validate:"omitempty,len=3"`
	Frequency    Frequency                   `json:"frequency" validate:"required,oneof=weekly fortnightly monthly bimonthly quarterly yearly"`
	NextRunDate  string                      `json:"nextRunDate" validate:"required,datetime=2006-01-02"`
	EndDate      *string                     `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DaysUntilDue *int                        `json:"daysUntilDue,omitempty" validate:"omitempty,gte=0,lte=365"`
	LineItems    []documents.LineItemRequest `json:"lineItems" validate:"required,min=1,dive"`
}

type UpdateTemplateRequest struct {
	Name         *string                     `json:"name,omitempty" validate:"omitempty,max=200"`
	Frequency    *Frequency                  `json:"frequency,omitempty" validate:"omitempty,oneof=weekly fortnightly monthly bimonthly quarterly yearly"`
	NextRunDate  *string                     `json:"nextRunDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate      *string                     `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DaysUntilDue *int                        `json:"daysUntilDue,omitempty" validate:"omitempty,gte=0,lte=365"`
	Status       *TemplateStatus             `json:"status,omitempty" validate:"omitempty,oneof=active paused"`
	LineItems    []documents.LineItemRequest `json:"lineItems,omitempty" validate:"omitempty,min=1,dive"`
}

type ListTemplatesFilter struct {
	Status *TemplateStatus
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	return nil
}
