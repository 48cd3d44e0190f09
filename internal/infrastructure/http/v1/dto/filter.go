package dto

import (
	"crmapi/internal/domain/contact"
)

// FilterResponse is the body of POST /contacts/filter.
type FilterResponse struct {
	Success bool `json:"success"`
	*contact.FilterResult
}

// NewFilterResponse wraps a filter result.
func NewFilterResponse(r *contact.FilterResult) FilterResponse {
	return FilterResponse{Success: true, FilterResult: r}
}

// ValidateResponse is the body of POST /contacts/filter/validate.
type ValidateResponse struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	Data    *contact.ValidationReport `json:"data"`
}

// NewValidateResponse builds the response for a validation report. Success
// mirrors the report, so an invalid filter is still a 200.
func NewValidateResponse(r *contact.ValidationReport) ValidateResponse {
	msg := "Filter is valid"
	if !r.IsValid {
		msg = "Filter validation failed"
	}
	return ValidateResponse{Success: r.IsValid, Message: msg, Data: r}
}
