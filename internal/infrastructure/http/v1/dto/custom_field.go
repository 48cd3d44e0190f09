package dto

import (
	"crmapi/internal/core/id"
	"crmapi/internal/domain/customfield"
)

// CreateCustomFieldRequest registers a custom field.
type CreateCustomFieldRequest struct {
	Module       string   `json:"module"`
	Label        string   `json:"label" binding:"required,max=255"`
	FieldName    string   `json:"field_name" binding:"required,max=100"`
	FieldType    string   `json:"field_type" binding:"required"`
	IsRequired   bool     `json:"is_required"`
	IsActive     *bool    `json:"is_active"`
	Options      []string `json:"options"`
	DefaultValue *string  `json:"default_value"`
	HelpText     *string  `json:"help_text"`
	DisplayOrder int64    `json:"display_order"`
}

// ToInput converts to the domain input. createdBy may be nil.
func (r *CreateCustomFieldRequest) ToInput(createdBy *id.ID) customfield.CreateInput {
	return customfield.CreateInput{
		Module:       r.Module,
		Label:        r.Label,
		FieldName:    r.FieldName,
		FieldType:    customfield.FieldType(r.FieldType),
		IsRequired:   r.IsRequired,
		IsActive:     r.IsActive,
		Options:      r.Options,
		DefaultValue: r.DefaultValue,
		HelpText:     r.HelpText,
		DisplayOrder: r.DisplayOrder,
		CreatedBy:    createdBy,
	}
}

// UpdateCustomFieldRequest changes the mutable attributes of a field.
type UpdateCustomFieldRequest struct {
	Label        *string  `json:"label" binding:"omitempty,max=255"`
	IsRequired   *bool    `json:"is_required"`
	IsActive     *bool    `json:"is_active"`
	Options      []string `json:"options"`
	DefaultValue *string  `json:"default_value"`
	HelpText     *string  `json:"help_text"`
	DisplayOrder *int64   `json:"display_order"`
}

// ToInput converts to the domain input.
func (r *UpdateCustomFieldRequest) ToInput() customfield.UpdateInput {
	return customfield.UpdateInput{
		Label:        r.Label,
		IsRequired:   r.IsRequired,
		IsActive:     r.IsActive,
		Options:      r.Options,
		DefaultValue: r.DefaultValue,
		HelpText:     r.HelpText,
		DisplayOrder: r.DisplayOrder,
	}
}

// CustomFieldListQuery filters the registry listing.
type CustomFieldListQuery struct {
	Module          string `form:"module"`
	IncludeInactive bool   `form:"include_inactive"`
}
