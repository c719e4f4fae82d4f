// Package contacts manages the customer and supplier directory that financial
// documents snapshot their contact names from.
package contacts

import (
	"time"

	"github.com/google/uuid"
)

type Contact struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      *string   `json:"email,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	TaxNumber  *string   `json:"taxNumber,omitempty"`
	Address    *string   `json:"address,omitempty"`
	City       *string   `json:"city,omitempty"`
	PostalCode *string   `json:"postalCode,omitempty"`
	Country    string    `json:"country"`
	IsCustomer bool      `json:"isCustomer"`
	IsSupplier bool      `json:"isSupplier"`
	IsActive   bool      `json:"isActive"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
