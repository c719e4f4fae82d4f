// Package recurring holds document templates that generate draft invoices
// and bills on a schedule.
package recurring

import (
	"time"

	"github.com/google/uuid"

	"github.com/fernbooks/fernbooks/internal/documents"
)

type Frequency string

const (
	FrequencyWeekly      Frequency = "weekly"
	FrequencyFortnightly Frequency = "fortnightly"
	FrequencyMonthly     Frequency = "monthly"
	FrequencyBimonthly   Frequency = "bimonthly"
	FrequencyQuarterly   Frequency = "quarterly"
	FrequencyYearly      Frequency = "yearly"
)

// Advance returns the next run date one interval later.
func (f Frequency) Advance(from time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyFortnightly:
		return from.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	case FrequencyBimonthly:
		return from.AddDate(0, 2, 0)
	case FrequencyQuarterly:
		return from.AddDate(0, 3, 0)
	case FrequencyYearly:
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

type TemplateStatus string

const (
	StatusActive    TemplateStatus = "active"
	StatusPaused    TemplateStatus = "paused"
	StatusCompleted TemplateStatus = "completed"
)

// Template describes the document to generate each interval. Completed is
// terminal: a template whose next run would pass its end date stops for good.
type Template struct {
	ID             uuid.UUID                    `json:"id"`
	Name           string                       `json:"name"`
	DocumentType   documents.Type               `json:"documentType"`
	ContactID      uuid.UUID                    `json:"contactId"`
	AmountType     documents.AmountType         `json:"amountType"`
	Currency       string                       `json:"currency"`
	Frequency      Frequency                    `json:"frequency"`
	NextRunDate    time.Time                    `json:"nextRunDate"`
	EndDate        *time.Time                   `json:"endDate,omitempty"`
	DaysUntilDue   int                          `json:"daysUntilDue"`
	Status         TemplateStatus               `json:"status"`
	TimesGenerated int                          `json:"timesGenerated"`
	LineItems      []documents.LineItemRequest  `json:"lineItems"`
	CreatedAt      time.Time                    `json:"createdAt"`
	UpdatedAt      time.Time                    `json:"updatedAt"`
}
