package banking

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fernbooks/fernbooks/internal/shared"
)

var validate = validator.New()

type CreateTransactionRequest struct {
	AccountID   uuid.UUID `json:"accountId" validate:"required"`
	Date        string    `json:"date" validate:"required,datetime=2006-01-02"`
	Amount      float64   `json:"amount" validate:"required"`
	Description string    `json:"description" validate:"required,max=500"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,max=100"`
}

type ImportLine struct {
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Amount      float64 `json:"amount" validate:"required"`
	Description string  `json:"description" validate:"required,max=500"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100"`
}

type ImportTransactionsRequest struct {
	AccountID    uuid.UUID    `json:"accountId" validate:"required"`
	Transactions []ImportLine `json:"transactions" validate:"required,min=1,dive"`
}

type ReconcileRequest struct {
	Category *string `json:"category,omitempty" validate:"omitempty,max=100"`
}

type BulkReconcileRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// BulkReconcileResult counts per-id outcomes. Already-reconciled and unknown
// ids count as failed without aborting the rest.
type BulkReconcileResult struct {
	Reconciled int `json:"reconciled"`
	Failed     int `json:"failed"`
}

type ListTransactionsFilter struct {
	AccountID  *uuid.UUID
	Reconciled *bool
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	return nil
}
