package documents

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fernbooks/fernbooks/internal/shared"
)

const dateLayout = "2006-01-02"

// DefaultTaxRate applies when a line omits its tax rate.
const DefaultTaxRate = 15.0

var validate = validator.New()

// LineItemRequest is the transport shape for one line. Quantity and TaxRate
// are pointers so an omitted field takes its default (1 and 15 respectively)
// instead of zero.
type LineItemRequest struct {
	Description string     `json:"description" validate:"max=500"`
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	Quantity    *float64   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	UnitPrice   float64    `json:"unitPrice"`
	Discount    float64    `json:"discount" validate:"gte=0,lte=100"`
	TaxRate     *float64   `json:"taxRate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Input converts the request line to calculator input.
func (r LineItemRequest) Input() LineInput {
	qty := 1.0
	if r.Quantity != nil {
		qty = *r.Quantity
	}
	rate := DefaultTaxRate
	if r.TaxRate != nil {
		rate = *r.TaxRate
	}
	return LineInput{
		Quantity:  decimal.NewFromFloat(qty),
		UnitPrice: decimal.NewFromFloat(r.UnitPrice),
		Discount:  decimal.NewFromFloat(r.Discount),
		TaxRate:   decimal.NewFromFloat(rate),
	}
}

// CreateDocumentRequest creates a draft document of any family.
type CreateDocumentRequest struct {
	ContactID  uuid.UUID         `json:"contactId" validate:"required"`
	Date       string            `json:"date" validate:"required,datetime=2006-01-02"`
	DueDate    string            `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AmountType AmountType        `json:"amountType,omitempty" validate:"omitempty,oneof=exclusive inclusive no_tax"`
	Currency   string            `json:"currency,omitempty" validate:"omitempty,len=3"`
	Reference  *string           `json:"reference,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
	CreditKind CreditNoteKind    `json:"creditKind,omitempty" validate:"omitempty,oneof=sales purchase"`
	LineItems  []LineItemRequest `json:"lineItems" validate:"dive"`
}

// UpdateDocumentRequest mutates a draft. Nil fields are left untouched;
// providing LineItems replaces them wholesale and recalculates totals.
type UpdateDocumentRequest struct {
	ContactID  *uuid.UUID         `json:"contactId,omitempty"`
	Date       *string            `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate    *string            `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AmountType *AmountType        `json:"amountType,omitempty" validate:"omitempty,oneof=exclusive inclusive no_tax"`
	Currency   *string            `json:"currency,omitempty" validate:"omitempty,len=3"`
	Reference  *string            `json:"reference,omitempty"`
	Notes      *string            `json:"notes,omitempty"`
	LineItems  []LineItemRequest  `json:"lineItems,omitempty" validate:"omitempty,dive"`
	Version    int64              `json:"version" validate:"required,gt=0"`
}

// TransitionRequest requests a status change.
type TransitionRequest struct {
	Status  Status `json:"status" validate:"required"`
	Version int64  `json:"version" validate:"required,gt=0"`
}

func validateStruct(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", shared.ErrValidation, s)
	}
	return t, nil
}
