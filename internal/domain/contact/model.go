// Package contact provides the contact aggregate, its CRUD service and the
// filter service behind POST /contacts/filter.
package contact

import (
	"context"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/entity"
	"crmapi/internal/core/id"
	"crmapi/internal/domain/filter"
)

// DefaultLeadStatus is assigned when a contact is created without one.
const DefaultLeadStatus = "new"

// Contact is a row of the contacts table.
type Contact struct {
	entity.Base

	FirstName  string  `db:"first_name" json:"first_name"`
	LastName   string  `db:"last_name" json:"last_name"`
	Email      string  `db:"email" json:"email"`
	Phone      *string `db:"phone" json:"phone,omitempty"`
	Company    *string `db:"company" json:"company,omitempty"`
	JobTitle   *string `db:"job_title" json:"job_title,omitempty"`
	Address    *string `db:"address" json:"address,omitempty"`
	City       *string `db:"city" json:"city,omitempty"`
	State      *string `db:"state" json:"state,omitempty"`
	PostalCode *string `db:"postal_code" json:"postal_code,omitempty"`
	Country    *string `db:"country" json:"country,omitempty"`
	Notes      *string `db:"notes" json:"notes,omitempty"`
	LeadSource *string `db:"lead_source" json:"lead_source,omitempty"`
	LeadStatus string  `db:"lead_status" json:"lead_status"`
	OwnerID    *id.ID  `db:"owner_id" json:"owner_id,omitempty"`
}

// NewContact returns an active contact with the default lead status.
func NewContact(firstName, lastName, email string) *Contact {
	return &Contact{
		Base:       entity.NewBase(),
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		LeadStatus: DefaultLeadStatus,
	}
}

// FullName joins first and last name.
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// OwnedBy reports whether userID owns the contact.
func (c *Contact) OwnedBy(userID string) bool {
	return c.OwnerID != nil && c.OwnerID.String() == userID
}

type lengthRule struct {
	field    string
	value    *string
	min, max int
}

// Validate implements entity.Validatable.
func (c *Contact) Validate(_ context.Context) error {
	rules := []lengthRule{
		{"first_name", &c.FirstName, 1, 100},
		{"last_name", &c.LastName, 1, 100},
		{"email", &c.Email, 1, 255},
		{"phone", c.Phone, 0, 20},
		{"company", c.Company, 0, 255},
		{"job_title", c.JobTitle, 0, 100},
		{"city", c.City, 0, 100},
		{"state", c.State, 0, 100},
		{"postal_code", c.PostalCode, 0, 20},
		{"country", c.Country, 0, 100},
		{"lead_source", c.LeadSource, 0, 100},
	}
	for _, r := range rules {
		if r.value == nil {
			continue
		}
		if n := len(strings.TrimSpace(*r.value)); n < r.min || n > r.max {
			return apperror.NewValidation(lengthMessage(r)).WithDetail("field", r.field)
		}
	}

	if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		return apperror.NewValidation("Invalid email format").
			WithDetail("field", "email")
	}

	if !slices.Contains(filter.LeadStatuses, c.LeadStatus) {
		return apperror.NewValidation(fmt.Sprintf("Invalid lead status '%s'", c.LeadStatus)).
			WithDetail("field", "lead_status").
			WithDetail("allowed", filter.LeadStatuses)
	}
	return nil
}

func lengthMessage(r lengthRule) string {
	label := strings.ReplaceAll(r.field, "_", " ")
	label = strings.ToUpper(label[:1]) + label[1:]
	if r.min > 0 {
		return fmt.Sprintf("%s must be between %d and %d characters", label, r.min, r.max)
	}
	return fmt.Sprintf("%s must be less than %d characters", label, r.max)
}

// Summary is one row of a filter result.
type Summary struct {
	ID           id.ID          `db:"id" json:"id"`
	FirstName    string         `db:"first_name" json:"first_name"`
	LastName     string         `db:"last_name" json:"last_name"`
	FullName     string         `db:"full_name" json:"full_name"`
	Email        string         `db:"email" json:"email"`
	Phone        *string        `db:"phone" json:"phone,omitempty"`
	Company      *string        `db:"company" json:"company,omitempty"`
	JobTitle     *string        `db:"job_title" json:"job_title,omitempty"`
	LeadStatus   string         `db:"lead_status" json:"lead_status"`
	OwnerID      *id.ID         `db:"owner_id" json:"owner_id,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
	CustomFields map[string]any `db:"custom_fields" json:"custom_fields,omitempty"`
}

// Detail is a contact with its custom values, as returned by GET /contacts/:id.
type Detail struct {
	*Contact
	FullName     string         `json:"full_name"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
}
