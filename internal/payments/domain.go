// Package payments applies money against outstanding document balances:
// direct payments on invoices and bills, and credit note allocation.
package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an append-only ledger record. Exactly one of InvoiceID and
// BillID is set. Deleting the parent document does not delete its payments.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	InvoiceID *uuid.UUID      `json:"invoiceId,omitempty"`
	BillID    *uuid.UUID      `json:"billId,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Reference *string         `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Allocation is one (document, amount) pair produced by credit application.
// Allocations are returned for auditability, not persisted as entities; their
// effect lives in the credit note's remaining credit and the targets' balances.
type Allocation struct {
	DocumentID uuid.UUID       `json:"documentId"`
	Number     string          `json:"number"`
	Amount     decimal.Decimal `json:"amount"`
}
