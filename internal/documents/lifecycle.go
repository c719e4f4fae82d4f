package documents

import (
	"fmt"

	"github.com/fernbooks/fernbooks/internal/shared"
)

// transitions maps each family's current status to its legal successors.
// Statuses absent from a family's table are terminal; statuses absent from
// the table entirely are not valid members of that family's enum.
var transitions = map[Type]map[Status][]Status{
	TypeInvoice: {
		StatusDraft:     {StatusSubmitted, StatusVoided},
		StatusSubmitted: {StatusApproved, StatusDraft},
		StatusApproved:  {StatusPaid},
		StatusPaid:      {},
		StatusVoided:    {},
	},
	TypeBill: {
		StatusDraft:     {StatusSubmitted, StatusVoided},
		StatusSubmitted: {StatusApproved, StatusDraft},
		StatusApproved:  {StatusPaid},
		StatusPaid:      {},
		StatusVoided:    {},
	},
	TypeQuote: {
		StatusDraft:    {StatusSent},
		StatusSent:     {StatusAccepted, StatusDeclined},
		StatusAccepted: {StatusInvoiced},
		StatusDeclined: {StatusDraft},
		StatusInvoiced: {},
	},
	TypePurchaseOrder: {
		StatusDraft:     {StatusSubmitted},
		StatusSubmitted: {StatusApproved, StatusDraft},
		StatusApproved:  {StatusBilled},
		StatusBilled:    {},
	},
	TypeCreditNote: {
		StatusDraft:     {StatusSubmitted, StatusVoided},
		StatusSubmitted: {StatusApproved},
		StatusApproved:  {StatusApplied},
		StatusApplied:   {},
		StatusVoided:    {},
	},
}

// TransitionError reports an illegal status change, carrying both statuses so
// the caller can render a precise message.
type TransitionError struct {
	Type Type
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition %s from '%s' to '%s'", e.Type.Label(), e.From, e.To)
}

// Unwrap classifies transition errors as business rule violations.
func (e *TransitionError) Unwrap() error { return shared.ErrBusinessRule }

// EditLockedError reports a mutation attempted on a non-draft document.
type EditLockedError struct {
	Type   Type
	Status Status
}

func (e *EditLockedError) Error() string {
	return fmt.Sprintf("only draft %ss can be edited (current status '%s')", e.Type.Label(), e.Status)
}

func (e *EditLockedError) Unwrap() error { return shared.ErrBusinessRule }

// ValidStatus reports whether s is a member of the family's status enum.
func ValidStatus(t Type, s Status) bool {
	table, ok := transitions[t]
	if !ok {
		return false
	}
	_, ok = table[s]
	return ok
}

// CanTransition reports whether from -> to is in the family's table.
// Same-state requests are never legal.
func CanTransition(t Type, from, to Status) bool {
	table, ok := transitions[t]
	if !ok {
		return false
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a requested status change, returning a TransitionError
// when the request is not a recognised status or not a legal successor.
// Side effects of terminal "converted" states are handled by Service.Convert,
// which goes through this same check.
func Transition(doc *Document, to Status) error {
	if !ValidStatus(doc.Type, to) || !CanTransition(doc.Type, doc.Status, to) {
		return &TransitionError{Type: doc.Type, From: doc.Status, To: to}
	}
	doc.Status = to
	return nil
}

// ConversionSource returns the single status a document must hold to be
// converted (accepted for quotes, approved for purchase orders).
func ConversionSource(t Type) (Status, bool) {
	switch t {
	case TypeQuote:
		return StatusAccepted, true
	case TypePurchaseOrder:
		return StatusApproved, true
	}
	return "", false
}

// ConvertedStatus returns the terminal status stamped on a converted source.
func ConvertedStatus(t Type) Status {
	if t == TypeQuote {
		return StatusInvoiced
	}
	return StatusBilled
}
