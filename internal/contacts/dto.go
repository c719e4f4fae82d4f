package contacts

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type CreateContactRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	TaxNumber  *string `json:"taxNumber,omitempty" validate:"omitempty,max=50"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=200"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	Country    string  `json:"country" validate:"omitempty,len=2"`
	IsCustomer bool    `json:"isCustomer"`
	IsSupplier bool    `json:"isSupplier"`
	Notes      *string `json:"notes,omitempty"`
}

type UpdateContactRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	TaxNumber  *string `json:"taxNumber,omitempty" validate:"omitempty,max=50"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=200"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	Country    *string `json:"country,omitempty" validate:"omitempty,len=2"`
	IsCustomer *bool   `json:"isCustomer,omitempty"`
	IsSupplier *bool   `json:"isSupplier,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

type ListContactsFilter struct {
	IsCustomer *bool
	IsSupplier *bool
	IsActive   *bool
	Search     string
}
