package customfield

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/id"
)

// Value is one contact_custom_values row. Exactly one typed column is
// populated according to the field type; Text keeps the submitted form for
// every type except multi_select, which keeps the canonical JSON.
type Value struct {
	ID            id.ID            `db:"id" json:"id"`
	ContactID     id.ID            `db:"contact_id" json:"contact_id"`
	CustomFieldID id.ID            `db:"custom_field_id" json:"custom_field_id"`
	Text          *string          `db:"value" json:"value,omitempty"`
	JSON          json.RawMessage  `db:"value_json" json:"value_json,omitempty"`
	Number        *decimal.Decimal `db:"value_number" json:"value_number,omitempty"`
	Date          *time.Time       `db:"value_date" json:"value_date,omitempty"`
	Boolean       *bool            `db:"value_boolean" json:"value_boolean,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// NewValue returns an empty value row for (contactID, fieldID).
func NewValue(contactID, fieldID id.ID) *Value {
	now := time.Now().UTC()
	return &Value{
		ID:            id.New(),
		ContactID:     contactID,
		CustomFieldID: fieldID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Set parses raw according to fieldType and fills the typed columns.
// Unknown types are stored as text.
func (v *Value) Set(fieldType FieldType, raw string) error {
	v.Text, v.JSON, v.Number, v.Date, v.Boolean = nil, nil, nil, nil, nil

	switch fieldType {
	case TypeNumber:
		n, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return apperror.NewValidation("Invalid number format")
		}
		v.Number = &n
		v.Text = &raw
	case TypeBoolean:
		var b bool
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1", "yes":
			b = true
		case "false", "0", "no":
			b = false
		default:
			return apperror.NewValidation("Invalid boolean format")
		}
		s := "false"
		if b {
			s = "true"
		}
		v.Boolean = &b
		v.Text = &s
	case TypeDate:
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
		if err != nil {
			return apperror.NewValidation("Invalid date format (expected YYYY-MM-DD)")
		}
		v.Date = &d
		v.Text = &raw
	case TypeMultiSelect:
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return apperror.NewValidation("Invalid multi_select format (expected JSON array)")
		}
		if items == nil {
			items = []string{}
		}
		canonical, _ := json.Marshal(items)
		s := string(canonical)
		v.JSON = canonical
		v.Text = &s
	default:
		v.Text = &raw
	}
	return nil
}

// Typed returns the value in its natural Go form: decimal for numbers,
// YYYY-MM-DD for dates, bool, []string for multi_select, otherwise the text.
func (v *Value) Typed(fieldType FieldType) any {
	switch {
	case fieldType == TypeNumber && v.Number != nil:
		return *v.Number
	case fieldType == TypeBoolean && v.Boolean != nil:
		return *v.Boolean
	case fieldType == TypeDate && v.Date != nil:
		return v.Date.Format(time.DateOnly)
	case fieldType == TypeMultiSelect && len(v.JSON) > 0:
		var items []string
		if err := json.Unmarshal(v.JSON, &items); err == nil {
			return items
		}
	}
	if v.Text != nil {
		return *v.Text
	}
	return nil
}

// ContactValue is a stored value joined with its registry field.
type ContactValue struct {
	Value
	FieldName string    `db:"field_name"`
	FieldType FieldType `db:"field_type"`
}
