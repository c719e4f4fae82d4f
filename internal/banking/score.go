package banking

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Scoring constants. The amount signal decays linearly inside a 5% band and
// a contact-name hit in the description adds a flat bonus, so a close amount
// with a name hit can outrank an exact amount without one.
const (
	amountWeight   = 0.6
	nameWeight     = 0.4
	amountBand     = 0.05
	minConfidence  = 0.1
	maxSuggestions = 5
)

// Score ranks candidates for an unreconciled transaction. Results are sorted
// by confidence, ties by smaller amount difference, then earlier date, and
// truncated to the top 5.
func Score(tx Transaction, candidates []Candidate) []Suggestion {
	if tx.IsReconciled {
		return []Suggestion{}
	}
	txAmount := tx.Amount.Abs()
	description := strings.ToLower(tx.Description)

	type scored struct {
		Suggestion
		diff float64
		date int64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		diff := txAmount.Sub(c.AmountDue).Abs()
		max := decimal.Max(txAmount, c.AmountDue)

		confidence := 0.0
		if max.IsPositive() {
			ratio, _ := diff.Div(max).Float64()
			if ratio <= amountBand {
				confidence += (1 - ratio) * amountWeight
			}
		}
		if c.ContactName != "" && strings.Contains(description, strings.ToLower(c.ContactName)) {
			confidence += nameWeight
		}
		confidence = math.Round(math.Min(confidence, 1.0)*100) / 100
		if confidence <= minConfidence {
			continue
		}

		d, _ := diff.Float64()
		ranked = append(ranked, scored{
			Suggestion: Suggestion{
				DocumentType: c.Type,
				DocumentID:   c.ID,
				Number:       c.Number,
				ContactName:  c.ContactName,
				Amount:       c.AmountDue,
				Confidence:   confidence,
			},
			diff: d,
			date: c.Date.UnixNano(),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		if ranked[i].diff != ranked[j].diff {
			return ranked[i].diff < ranked[j].diff
		}
		return ranked[i].date < ranked[j].date
	})

	if len(ranked) > maxSuggestions {
		ranked = ranked[:maxSuggestions]
	}
	out := make([]Suggestion, len(ranked))
	for i, r := range ranked {
		out[i] = r.Suggestion
	}
	return out
}
