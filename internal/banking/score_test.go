package banking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fernbooks/fernbooks/internal/documents"
)

func inflow(amount float64, description string) Transaction {
	return Transaction{
		ID:          uuid.New(),
		AccountID:   uuid.New(),
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromFloat(amount),
		Description: description,
	}
}

func candidate(name string, due float64, day int) Candidate {
	return Candidate{
		ID:          uuid.New(),
		Type:        documents.TypeInvoice,
		Number:      "INV-TEST",
		ContactName: name,
		Date:        time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
		AmountDue:   decimal.NewFromFloat(due),
	}
}

func TestScoreExactAmountWithNameBeatsWithout(t *testing.T) {
	tx := inflow(500, "payment from Harbour Cafe")
	named := candidate("Harbour Cafe", 500, 1)
	unnamed := candidate("Kauri Timber", 500, 1)

	got := Score(tx, []Candidate{unnamed, named})
	require.Len(t, got, 2)
	require.Equal(t, named.ID, got[0].DocumentID)
	require.InDelta(t, 1.0, got[0].Confidence, 1e-9)
	require.InDelta(t, 0.6, got[1].Confidence, 1e-9)
}

func TestScoreCloseAmountWithNameRanksFirst(t *testing.T) {
	tx := inflow(490, "deposit HARBOUR CAFE ref 77")
	closeMatch := candidate("Harbour Cafe", 500, 1)
	exact := candidate("Kauri Timber", 490, 1)

	got := Score(tx, []Candidate{exact, closeMatch})
	require.Len(t, got, 2)
	require.Equal(t, closeMatch.ID, got[0].DocumentID)
	require.Greater(t, got[0].Confidence, 0.5)
	require.Greater(t, got[0].Confidence, got[1].Confidence)
}

func TestScoreAmountSignalDecays(t *testing.T) {
	tx := inflow(1000, "transfer")
	nearer := candidate("A", 990, 1)
	farther := candidate("B", 960, 1)

	got := Score(tx, []Candidate{farther, nearer})
	require.Len(t, got, 2)
	require.Equal(t, nearer.ID, got[0].DocumentID)
	require.Greater(t, got[0].Confidence, got[1].Confidence)
}

func TestScoreOutsideBandNeedsNameHit(t *testing.T) {
	tx := inflow(1000, "invoice for Harbour Cafe")
	farNamed := candidate("Harbour Cafe", 700, 1)
	farUnnamed := candidate("Kauri Timber", 700, 1)

	got := Score(tx, []Candidate{farNamed, farUnnamed})
	require.Len(t, got, 1)
	require.Equal(t, farNamed.ID, got[0].DocumentID)
	require.InDelta(t, 0.4, got[0].Confidence, 1e-9)
}

func TestScoreTruncatesToFive(t *testing.T) {
	tx := inflow(500, "transfer")
	var candidates []Candidate
	for i := 0; i < 8; i++ {
		candidates = append(candidates, candidate("", 500, i+1))
	}
	got := Score(tx, candidates)
	require.Len(t, got, 5)
}

func TestScoreTieBreaks(t *testing.T) {
	tx := inflow(500, "transfer")
	laterExact := candidate("", 500, 20)
	earlierExact := candidate("", 500, 5)
	near := candidate("", 495, 1)

	got := Score(tx, []Candidate{near, laterExact, earlierExact})
	require.Len(t, got, 3)
	// Equal confidence: smaller difference first, then earlier date.
	require.Equal(t, earlierExact.ID, got[0].DocumentID)
	require.Equal(t, laterExact.ID, got[1].DocumentID)
	require.Equal(t, near.ID, got[2].DocumentID)
}

func TestScoreReconciledEmpty(t *testing.T) {
	tx := inflow(500, "transfer")
	tx.IsReconciled = true
	got := Score(tx, []Candidate{candidate("", 500, 1)})
	require.Empty(t, got)
}

func TestScoreConfidenceClampedAndRounded(t *testing.T) {
	tx := inflow(500, "Harbour Cafe")
	got := Score(tx, []Candidate{candidate("Harbour Cafe", 500, 1)})
	require.Len(t, got, 1)
	require.LessOrEqual(t, got[0].Confidence, 1.0)

	// 490 vs 500: 0.98*0.6 + 0.4 = 0.988, rounded to 0.99.
	tx = inflow(490, "Harbour Cafe")
	got = Score(tx, []Candidate{candidate("Harbour Cafe", 500, 1)})
	require.Len(t, got, 1)
	require.InDelta(t, 0.99, got[0].Confidence, 1e-9)
}
