package documents

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fernbooks/fernbooks/internal/shared"
)

func TestTransitionTableExhaustive(t *testing.T) {
	// Every (from, to) pair in the table succeeds; every pair outside it,
	// including same-state requests, fails with a TransitionError.
	for docType, table := range transitions {
		var members []Status
		for s := range table {
			members = append(members, s)
		}
		for from, allowed := range table {
			allowedSet := make(map[Status]bool, len(allowed))
			for _, s := range allowed {
				allowedSet[s] = true
			}
			for _, to := range members {
				doc := Document{Type: docType, Status: from}
				err := Transition(&doc, to)
				if allowedSet[to] {
					require.NoError(t, err, "%s: %s -> %s", docType, from, to)
					require.Equal(t, to, doc.Status)
				} else {
					var terr *TransitionError
					require.ErrorAs(t, err, &terr, "%s: %s -> %s", docType, from, to)
					require.Equal(t, from, terr.From)
					require.Equal(t, to, terr.To)
					require.Equal(t, from, doc.Status, "failed transition must not mutate")
				}
			}
		}
	}
}

func TestTransitionRejectsForeignStatus(t *testing.T) {
	doc := Document{Type: TypeInvoice, Status: StatusDraft}
	// "sent" belongs to quotes, not invoices.
	err := Transition(&doc, StatusSent)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestTransitionDraftToPaidFails(t *testing.T) {
	doc := Document{Type: TypeInvoice, Status: StatusDraft}
	err := Transition(&doc, StatusPaid)
	require.EqualError(t, err, "cannot transition invoice from 'draft' to 'paid'")
}

func TestConversionSource(t *testing.T) {
	s, ok := ConversionSource(TypeQuote)
	require.True(t, ok)
	require.Equal(t, StatusAccepted, s)

	s, ok = ConversionSource(TypePurchaseOrder)
	require.True(t, ok)
	require.Equal(t, StatusApproved, s)

	_, ok = ConversionSource(TypeInvoice)
	require.False(t, ok)
}

func TestConvertedStatus(t *testing.T) {
	require.Equal(t, StatusInvoiced, ConvertedStatus(TypeQuote))
	require.Equal(t, StatusBilled, ConvertedStatus(TypePurchaseOrder))
}
