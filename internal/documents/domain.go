/// Package documents implements the shared financial document engine: the
// totals calculator, the lifecycle state machine and document conversion for
// invoices, bills, quotes, credit notes and purchase orders.
package documents

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type identifies a document family. Each family has its own status set and
// number prefix.
type Type string

const (
	TypeInvoice       Type = "invoice"
	TypeBill          Type = "bill"
	TypeQuote         Type = "quote"
	TypeCreditNote    Type = "credit_note"
	TypePurchaseOrder Type = "purchase_order"
)

// NumberPrefix returns the auto-number prefix for the family.
func (t Type) NumberPrefix() string {
	switch t {
	case TypeInvoice:
		return "INV"
	case TypeBill:
		return "BILL"
	case TypeQuote:
		return "QU"
	case TypeCreditNote:
		return "CN"
	case TypePurchaseOrder:
		return "PO"
	}
	return "DOC"
}

// Label returns the human-readable singular name used in error messages.
func (t Type) Label() string {
	switch t {
	case TypeInvoice:
		return "invoice"
	case TypeBill:
		return "bill"
	case TypeQuote:
		return "quote"
	case TypeCreditNote:
		return "credit note"
	case TypePurchaseOrder:
		return "purchase order"
	}
	return "document"
}

// Status enumerates lifecycle states across all families. Which values are
// valid for a family, and which transitions are legal, is defined by the
// transition tables in lifecycle.go.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
	StatusVoided    Status = "voided"
	StatusSent      Status = "sent"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusInvoiced  Status = "invoiced"
	StatusBilled    Status = "billed"
	StatusApplied   Status = "applied"
)

// AmountType controls how line prices relate to tax.
type AmountType string

const (
	AmountTypeExclusive AmountType = "exclusive"
	AmountTypeInclusive AmountType = "inclusive"
	AmountTypeNoTax     AmountType = "no_tax"
)

// CreditNoteKind distinguishes sales credit notes (allocated against
// invoices) from purchase credit notes (allocated against bills).
type CreditNoteKind string

const (
	CreditKindSales    CreditNoteKind = "sales"
	CreditKindPurchase CreditNoteKind = "purchase"
)

// DefaultTermsDays is the payment terms applied to documents created through
// conversion: due date = conversion date + terms.
const DefaultTermsDays = 30

// LineItem is owned exclusively by its parent document and replaced wholesale
// on edit. LineAmount and TaxAmount are derived, rounded to 2dp per line.
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	DocumentID  uuid.UUID       `json:"documentId"`
	ProductID   *uuid.UUID      `json:"productId,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	LineAmount  decimal.Decimal `json:"lineAmount"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
}

// Document is the shape shared by all five families. Mutable only while
// draft; once transitioned out of draft only the status and payment or
// allocation fields may change. Version is bumped on every mutation and
// required back on mutating operations.
type Document struct {
	ID          uuid.UUID  `json:"id"`
	Type        Type       `json:"type"`
	Number      string     `json:"number"`
	ContactID   uuid.UUID  `json:"contactId"`
	ContactName string     `json:"contactName"`
	Status      Status     `json:"status"`
	AmountType  AmountType `json:"amountType"`
	Currency    string     `json:"currency"`
	Date        time.Time  `json:"date"`
	DueDate     time.Time  `json:"dueDate"`
	Reference   *string    `json:"reference,omitempty"`
	Notes       *string    `json:"notes,omitempty"`

	SubTotal decimal.Decimal `json:"subTotal"`
	TotalTax decimal.Decimal `json:"totalTax"`
	Total    decimal.Decimal `json:"total"`

	// Invoices and bills only.
	AmountPaid decimal.Decimal `json:"amountPaid"`
	AmountDue  decimal.Decimal `json:"amountDue"`

	// Credit notes only.
	CreditKind      *CreditNoteKind `json:"creditKind,omitempty"`
	RemainingCredit decimal.Decimal `json:"remainingCredit"`

	// Quotes and purchase orders only: the invoice/bill created by
	// conversion, stamped atomically with the terminal status.
	ConvertedDocumentID *uuid.UUID `json:"convertedDocumentId,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	LineItems []LineItem `json:"lineItems,omitempty"`
}

// IsOpen reports whether the document still carries an outstanding balance a
// payment or credit could settle.
func (d Document) IsOpen() bool {
	return d.Status != StatusDraft && d.Status != StatusVoided && d.Status != StatusPaid &&
		d.AmountDue.IsPositive()
}

// ConversionTarget returns the family a converted document belongs to, and
// whether the family converts at all.
func (t Type) ConversionTarget() (Type, bool) {
	switch t {
	case TypeQuote:
		return TypeInvoice, true
	case TypePurchaseOrder:
		return TypeBill, true
	}
	return "", false
}
