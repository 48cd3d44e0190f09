package dto

import (
	"crmapi/internal/core/apperror"
	"crmapi/internal/core/id"
	"crmapi/internal/domain/contact"
)

// ContactRequest creates or updates a contact. On update, omitted fields keep
// their stored value; an empty custom field value clears it.
type ContactRequest struct {
	FirstName    *string           `json:"first_name" binding:"omitempty,max=100"`
	LastName     *string           `json:"last_name" binding:"omitempty,max=100"`
	Email        *string           `json:"email" binding:"omitempty,max=255"`
	Phone        *string           `json:"phone" binding:"omitempty,max=50"`
	Company      *string           `json:"company"`
	JobTitle     *string           `json:"job_title"`
	Address      *string           `json:"address"`
	City         *string           `json:"city"`
	State        *string           `json:"state"`
	PostalCode   *string           `json:"postal_code"`
	Country      *string           `json:"country"`
	Notes        *string           `json:"notes"`
	LeadSource   *string           `json:"lead_source"`
	LeadStatus   *string           `json:"lead_status"`
	OwnerID      *string           `json:"owner_id" binding:"omitempty,uuid"`
	CustomFields map[string]string `json:"custom_fields"`
}

// ToFields converts to the domain input.
func (r *ContactRequest) ToFields() (contact.Fields, error) {
	f := contact.Fields{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Phone:        r.Phone,
		Company:      r.Company,
		JobTitle:     r.JobTitle,
		Address:      r.Address,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.PostalCode,
		Country:      r.Country,
		Notes:        r.Notes,
		LeadSource:   r.LeadSource,
		LeadStatus:   r.LeadStatus,
		CustomFields: r.CustomFields,
	}
	if r.OwnerID != nil && *r.OwnerID != "" {
		owner, err := id.Parse(*r.OwnerID)
		if err != nil {
			return contact.Fields{}, apperror.NewValidation("owner_id must be a UUID").WithDetail("field", "owner_id")
		}
		f.OwnerID = &owner
	}
	return f, nil
}
