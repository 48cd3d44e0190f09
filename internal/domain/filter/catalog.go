package filter

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Storage says where a field's values live.
type Storage int

const (
	StorageColumn Storage = iota // fixed column on contacts
	StorageCustom                // row in contact_custom_values
)

// FormatUUID marks select fields whose values are UUIDs.
const FormatUUID = "uuid"

// ContactAlias is the alias of the contacts table in every compiled statement.
const ContactAlias = "c"

// FieldDefinition is one catalog entry.
type FieldDefinition struct {
	Name      string       `json:"name"`
	Label     string       `json:"label"`
	Type      SemanticType `json:"field_type"`
	Operators []Operator   `json:"operators"`
	Required  bool         `json:"required"`
	Options   []string     `json:"options,omitempty"`
	// Format narrows text-shaped values ("uuid" for id columns).
	Format string `json:"format,omitempty"`

	Storage Storage `json:"-"`
	// Column is the qualified identifier for fixed columns ("c.email").
	Column string `json:"-"`
	// CustomFieldID and CustomType are set for registry fields.
	CustomFieldID string `json:"-"`
	CustomType    string `json:"custom_type,omitempty"`
}

// Allows reports whether op is legal for this field.
func (d FieldDefinition) Allows(op Operator) bool {
	return slices.Contains(d.Operators, op)
}

// IsCustom reports whether the field is backed by the custom value table.
func (d FieldDefinition) IsCustom() bool {
	return d.Storage == StorageCustom
}

// Resolver looks up a field by name.
type Resolver interface {
	Resolve(name string) (FieldDefinition, bool)
}

// legality is the semantic type -> operator matrix.
var legality = map[SemanticType][]Operator{
	TypeText:    {Equals, NotEquals, Contains, StartsWith, EndsWith, IsEmpty, IsNotEmpty, In, NotIn},
	TypeNumber:  {Equals, NotEquals, GreaterThan, LessThan, GreaterEqual, LessEqual, Between},
	TypeDate:    {Equals, NotEquals, After, Before, Between},
	TypeSelect:  {Equals, NotEquals, In, NotIn},
	TypeBoolean: {Equals, NotEquals},
}

// OperatorsFor returns a copy of the operators legal for t.
func OperatorsFor(t SemanticType) []Operator {
	return slices.Clone(legality[t])
}

// phoneOperators is the reduced set offered for the phone column.
var phoneOperators = []Operator{Equals, NotEquals, Contains, StartsWith, IsEmpty, IsNotEmpty}

// LeadStatuses are the values offered for lead_status.
var LeadStatuses = []string{"new", "contacted", "qualified", "proposal", "negotiation", "closed_won", "closed_lost"}

// standardColumns is the closed set of fixed contact columns, in table order.
var standardColumns = []struct {
	name string
	typ  SemanticType
}{
	{"id", TypeSelect},
	{"first_name", TypeText},
	{"last_name", TypeText},
	{"email", TypeText},
	{"phone", TypeText},
	{"company", TypeText},
	{"job_title", TypeText},
	{"address", TypeText},
	{"city", TypeText},
	{"state", TypeText},
	{"postal_code", TypeText},
	{"country", TypeText},
	{"notes", TypeText},
	{"lead_source", TypeText},
	{"lead_status", TypeSelect},
	{"owner_id", TypeSelect},
	{"is_active", TypeBoolean},
	{"created_at", TypeDate},
	{"updated_at", TypeDate},
}

var requiredColumns = map[string]bool{"first_name": true, "last_name": true, "email": true}

// StandardFields resolves the fixed contact columns.
type StandardFields map[string]FieldDefinition

// Standard is the static fixed-column catalog.
var Standard = newStandardFields()

func newStandardFields() StandardFields {
	fields := make(StandardFields, len(standardColumns))
	for _, col := range standardColumns {
		def := FieldDefinition{
			Name:      col.name,
			Label:     labelFor(col.name),
			Type:      col.typ,
			Operators: OperatorsFor(col.typ),
			Required:  requiredColumns[col.name],
			Storage:   StorageColumn,
			Column:    ContactAlias + "." + col.name,
		}
		switch col.name {
		case "phone":
			def.Operators = slices.Clone(phoneOperators)
		case "lead_status":
			def.Options = slices.Clone(LeadStatuses)
		case "id", "owner_id":
			def.Format = FormatUUID
		}
		fields[col.name] = def
	}
	return fields
}

// Resolve implements Resolver.
func (s StandardFields) Resolve(name string) (FieldDefinition, bool) {
	def, ok := s[name]
	return def, ok
}

// IsStandardField reports whether name is a fixed contact column.
func IsStandardField(name string) bool {
	_, ok := Standard[name]
	return ok
}

// StandardFieldNames returns the fixed columns in table order.
func StandardFieldNames() []string {
	names := make([]string, len(standardColumns))
	for i, col := range standardColumns {
		names[i] = col.name
	}
	return names
}

// CustomFieldSpec is the registry view the catalog needs.
type CustomFieldSpec struct {
	ID        string
	Name      string
	Label     string
	FieldType string // registry type: text, textarea, number, date, boolean, select, multi_select
	Required  bool
	Active    bool
	Options   []string
}

// SemanticTypeOf maps a registry field_type onto a semantic type.
// Unknown registry types are treated as text.
func SemanticTypeOf(fieldType string) SemanticType {
	switch fieldType {
	case "number":
		return TypeNumber
	case "date":
		return TypeDate
	case "boolean":
		return TypeBoolean
	case "select", "multi_select":
		return TypeSelect
	default:
		return TypeText
	}
}

// CustomFields resolves active registry fields.
type CustomFields map[string]FieldDefinition

// NewCustomFields builds the custom half of the catalog. Inactive rows and
// rows shadowed by a fixed column are skipped.
func NewCustomFields(specs []CustomFieldSpec) CustomFields {
	fields := make(CustomFields, len(specs))
	for _, cf := range specs {
		if !cf.Active || cf.Name == "" || IsStandardField(cf.Name) {
			continue
		}
		typ := SemanticTypeOf(cf.FieldType)
		label := cf.Label
		if label == "" {
			label = labelFor(cf.Name)
		}
		fields[cf.Name] = FieldDefinition{
			Name:          cf.Name,
			Label:         label,
			Type:          typ,
			Operators:     OperatorsFor(typ),
			Required:      cf.Required,
			Options:       cf.Options,
			Storage:       StorageCustom,
			CustomFieldID: cf.ID,
			CustomType:    cf.FieldType,
		}
	}
	return fields
}

// Resolve implements Resolver.
func (c CustomFields) Resolve(name string) (FieldDefinition, bool) {
	def, ok := c[name]
	return def, ok
}

// Catalog merges fixed columns and custom fields. Fixed columns win.
type Catalog struct {
	custom CustomFields
}

// NewCatalog creates a catalog over the given custom fields.
func NewCatalog(custom CustomFields) *Catalog {
	if custom == nil {
		custom = CustomFields{}
	}
	return &Catalog{custom: custom}
}

// Resolve implements Resolver.
func (c *Catalog) Resolve(name string) (FieldDefinition, bool) {
	if def, ok := Standard.Resolve(name); ok {
		return def, true
	}
	return c.custom.Resolve(name)
}

// Standard returns a copy of the fixed-column definitions keyed by name.
func (c *Catalog) Standard() map[string]FieldDefinition {
	return cloneDefinitions(Standard)
}

// Custom returns a copy of the custom-field definitions keyed by name.
func (c *Catalog) Custom() map[string]FieldDefinition {
	return cloneDefinitions(c.custom)
}

func cloneDefinitions[M ~map[string]FieldDefinition](defs M) map[string]FieldDefinition {
	out := maps.Clone(map[string]FieldDefinition(defs))
	for name, def := range out {
		def.Operators = slices.Clone(def.Operators)
		out[name] = def
	}
	return out
}

// labelFor turns "postal_code" into "Postal Code".
func labelFor(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
