package journals

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/fernbooks/fernbooks/internal/shared"
)

var validate = validator.New()

type JournalLineRequest struct {
	AccountCode string  `json:"accountCode" validate:"required,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=200"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
}

type CreateJournalRequest struct {
	Date      string               `json:"date" validate:"required,datetime=2006-01-02"`
	Narration string               `json:"narration" validate:"required,max=500"`
	Lines     []JournalLineRequest `json:"lines" validate:"required,min=2,dive"`
}

type UpdateJournalRequest struct {
	Date      *string              `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Narration *string              `json:"narration,omitempty" validate:"omitempty,max=500"`
	Lines     []JournalLineRequest `json:"lines,omitempty" validate:"omitempty,min=2,dive"`
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	return nil
}
