// Package customfield manages the registry of user-defined contact fields
// and the typed values stored for them.
package customfield

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/entity"
	"crmapi/internal/core/id"
	"crmapi/internal/domain/filter"
)

// ModuleContact is the registry module of contact fields.
const ModuleContact = "contact"

// FieldType is the registry type of a custom field.
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeTextarea    FieldType = "textarea"
	TypeNumber      FieldType = "number"
	TypeEmail       FieldType = "email"
	TypePhone       FieldType = "phone"
	TypeDate        FieldType = "date"
	TypeBoolean     FieldType = "boolean"
	TypeSelect      FieldType = "select"
	TypeMultiSelect FieldType = "multi_select"
)

// FieldTypes lists the accepted registry types.
var FieldTypes = []FieldType{
	TypeText, TypeTextarea, TypeNumber, TypeEmail, TypePhone,
	TypeDate, TypeBoolean, TypeSelect, TypeMultiSelect,
}

// Valid reports whether t is an accepted registry type.
func (t FieldType) Valid() bool {
	return slices.Contains(FieldTypes, t)
}

// HasOptions reports whether the type needs an option list.
func (t FieldType) HasOptions() bool {
	return t == TypeSelect || t == TypeMultiSelect
}

var fieldNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Field is one registry row.
type Field struct {
	entity.Base

	Module       string    `db:"module" json:"module"`
	Label        string    `db:"label" json:"label"`
	FieldName    string    `db:"field_name" json:"field_name"`
	FieldType    FieldType `db:"field_type" json:"field_type"`
	IsRequired   bool      `db:"is_required" json:"is_required"`
	Options      []string  `db:"options" json:"options,omitempty"`
	DefaultValue *string   `db:"default_value" json:"default_value,omitempty"`
	HelpText     *string   `db:"help_text" json:"help_text,omitempty"`
	DisplayOrder int64     `db:"display_order" json:"display_order"`
	CreatedBy    *id.ID    `db:"created_by" json:"created_by,omitempty"`
}

// NewField returns an active field with a fresh ID.
func NewField(module, fieldName, label string, fieldType FieldType) *Field {
	return &Field{
		Base:      entity.NewBase(),
		Module:    module,
		FieldName: fieldName,
		Label:     label,
		FieldType: fieldType,
	}
}

// Validate implements entity.Validatable.
func (f *Field) Validate(_ context.Context) error {
	if l := len(f.Module); l < 1 || l > 50 {
		return apperror.NewValidation("Module must be between 1 and 50 characters").
			WithDetail("field", "module")
	}
	if l := len(strings.TrimSpace(f.Label)); l < 1 || l > 255 {
		return apperror.NewValidation("Label must be between 1 and 255 characters").
			WithDetail("field", "label")
	}
	if len(f.FieldName) > 100 || !fieldNameRe.MatchString(f.FieldName) {
		return apperror.NewValidation("Field name must be snake_case and at most 100 characters").
			WithDetail("field", "field_name").
			WithDetail("value", f.FieldName)
	}
	if f.Module == ModuleContact && filter.IsStandardField(f.FieldName) {
		return apperror.NewValidation(fmt.Sprintf("Field name '%s' is reserved for a standard contact field", f.FieldName)).
			WithDetail("field", "field_name")
	}
	if !f.FieldType.Valid() {
		names := make([]string, len(FieldTypes))
		for i, t := range FieldTypes {
			names[i] = string(t)
		}
		return apperror.NewValidation("Invalid field type. Must be one of: " + strings.Join(names, ", ")).
			WithDetail("field", "field_type")
	}
	if f.FieldType.HasOptions() && len(f.Options) == 0 {
		return apperror.NewValidation("Options are required for select and multi_select field types").
			WithDetail("field", "options")
	}
	return nil
}

// Spec is the view of the field used by the filter catalog.
func (f *Field) Spec() filter.CustomFieldSpec {
	return filter.CustomFieldSpec{
		ID:        f.ID.String(),
		Name:      f.FieldName,
		Label:     f.Label,
		FieldType: string(f.FieldType),
		Required:  f.IsRequired,
		Active:    f.IsActive,
		Options:   f.Options,
	}
}

// Specs converts a registry listing for the filter catalog.
func Specs(fields []*Field) []filter.CustomFieldSpec {
	out := make([]filter.CustomFieldSpec, len(fields))
	for i, f := range fields {
		out[i] = f.Spec()
	}
	return out
}
