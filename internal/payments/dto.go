package payments

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fernbooks/fernbooks/internal/shared"
)

var validate = validator.New()

type RecordPaymentRequest struct {
	InvoiceID *uuid.UUID `json:"invoiceId,omitempty"`
	BillID    *uuid.UUID `json:"billId,omitempty"`
	Amount    float64    `json:"amount" validate:"required"`
	Date      string     `json:"date" validate:"required,datetime=2006-01-02"`
	Reference *string    `json:"reference,omitempty" validate:"omitempty,max=100"`
}

type ApplyCreditRequest struct {
	DocumentID uuid.UUID `json:"documentId" validate:"required"`
	Amount     float64   `json:"amount" validate:"required"`
}

type ListPaymentsFilter struct {
	DocumentID *uuid.UUID
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	return nil
}
