// Package banking holds bank transactions and the match scorer that ranks
// open documents as reconciliation candidates.
package banking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fernbooks/fernbooks/internal/documents"
)

// Transaction is an imported bank statement line. Amount is signed: positive
// for money in, negative for money out. Reconciliation is a one-way flip.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"accountId"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	IsReconciled bool            `json:"isReconciled"`
	Category     *string         `json:"category,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Candidate is the slice of an open document the scorer needs.
type Candidate struct {
	ID          uuid.UUID
	Type        documents.Type
	Number      string
	ContactName string
	Date        time.Time
	AmountDue   decimal.Decimal
}

// Suggestion is one ranked match, with its confidence exposed for
// transparency.
type Suggestion struct {
	DocumentType documents.Type  `json:"documentType"`
	DocumentID   uuid.UUID       `json:"documentId"`
	Number       string          `json:"number"`
	ContactName  string          `json:"contactName"`
	Amount       decimal.Decimal `json:"amount"`
	Confidence   float64         `json:"confidence"`
}
