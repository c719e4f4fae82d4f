// Package journals provides manual journal entries gated by the debit/credit
// balance check.
package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Journal struct {
	ID        uuid.UUID     `json:"id"`
	Date      time.Time     `json:"date"`
	Narration string        `json:"narration"`
	Lines     []JournalLine `json:"lines"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// JournalLine carries either a debit or a credit amount, both non-negative.
type JournalLine struct {
	ID          uuid.UUID       `json:"id"`
	JournalID   uuid.UUID       `json:"journalId"`
	AccountCode string          `json:"accountCode"`
	Description *string         `json:"description,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}
