// Package filter holds the contact filter model: the condition/group tree a
// client submits, the field catalog it is checked against, the validator and
// the compiler that turns it into a parameterized SQL predicate.
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Logic combines the children of a group.
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// Valid reports whether l is a known logic operator.
func (l Logic) Valid() bool {
	return l == LogicAnd || l == LogicOr
}

// Operator is a comparison applied by a condition.
type Operator string

const (
	Equals       Operator = "equals"
	NotEquals    Operator = "not_equals"
	Contains     Operator = "contains"
	StartsWith   Operator = "starts_with"
	EndsWith     Operator = "ends_with"
	IsEmpty      Operator = "is_empty"
	IsNotEmpty   Operator = "is_not_empty"
	GreaterThan  Operator = "greater_than"
	LessThan     Operator = "less_than"
	GreaterEqual Operator = "greater_equal"
	LessEqual    Operator = "less_equal"
	Between      Operator = "between"
	After        Operator = "after"
	Before       Operator = "before"
	In           Operator = "in"
	NotIn        Operator = "not_in"
)

// AllOperators lists every operator in wire order.
var AllOperators = []Operator{
	Equals, NotEquals, Contains, StartsWith, EndsWith, IsEmpty, IsNotEmpty,
	GreaterThan, LessThan, GreaterEqual, LessEqual, Between,
	After, Before, In, NotIn,
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	for _, known := range AllOperators {
		if o == known {
			return true
		}
	}
	return false
}

// takesList reports whether the operator expects an array value.
func (o Operator) takesList() bool {
	return o == In || o == NotIn || o == Between
}

// takesNoValue reports whether the operator ignores its value.
func (o Operator) takesNoValue() bool {
	return o == IsEmpty || o == IsNotEmpty
}

// SemanticType is the filter-level type of a field.
type SemanticType string

const (
	TypeText    SemanticType = "text"
	TypeNumber  SemanticType = "number"
	TypeDate    SemanticType = "date"
	TypeBoolean SemanticType = "boolean"
	TypeSelect  SemanticType = "select"
)

// Valid reports whether t is a known semantic type.
func (t SemanticType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeBoolean, TypeSelect:
		return true
	}
	return false
}

// SortOrder is the direction of the result ordering.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Valid reports whether s is a known sort order.
func (s SortOrder) Valid() bool {
	return s == SortAsc || s == SortDesc
}

// Node is either *Condition or *Group.
type Node interface {
	node()
}

// Condition is a single comparison on one field.
type Condition struct {
	Field    string        `json:"field"`
	Operator Operator      `json:"operator"`
	Value    any           `json:"value"`
	// FieldType is an optional client hint; the catalog type always wins.
	FieldType *SemanticType `json:"field_type,omitempty"`
}

// Group combines child nodes with one logic operator.
type Group struct {
	Logic      Logic  `json:"logic"`
	Conditions []Node `json:"conditions"`
}

func (*Condition) node() {}
func (*Group) node()     {}

// Cond is a shorthand constructor for a Condition.
func Cond(field string, op Operator, value any) *Condition {
	return &Condition{Field: field, Operator: op, Value: value}
}

// And builds an AND group.
func And(children ...Node) *Group {
	return &Group{Logic: LogicAnd, Conditions: nonNil(children)}
}

// Or builds an OR group.
func Or(children ...Node) *Group {
	return &Group{Logic: LogicOr, Conditions: nonNil(children)}
}

func nonNil(children []Node) []Node {
	if children == nil {
		return []Node{}
	}
	return children
}

// Request is a filter call: the root logic and conditions plus paging and sorting.
type Request struct {
	Logic      Logic     `json:"logic"`
	Conditions []Node    `json:"conditions"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	SortBy     *string   `json:"sort_by,omitempty"`
	SortOrder  SortOrder `json:"sort_order"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 1000
)

// NewRequest returns a request with default paging and ordering.
func NewRequest(logic Logic, conditions ...Node) *Request {
	return &Request{
		Logic:      logic,
		Conditions: nonNil(conditions),
		Page:       DefaultPage,
		Limit:      DefaultLimit,
		SortOrder:  SortDesc,
	}
}

// Root folds the top-level logic and conditions into one group.
func (r *Request) Root() *Group {
	return &Group{Logic: r.Logic, Conditions: nonNil(r.Conditions)}
}

// Offset is the number of rows skipped for the requested page.
func (r *Request) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}

// --- JSON ---

type wireNode struct {
	Type       string            `json:"type,omitempty"`
	Field      *string           `json:"field,omitempty"`
	Operator   Operator          `json:"operator,omitempty"`
	Value      json.RawMessage   `json:"value,omitempty"`
	FieldType  *SemanticType     `json:"field_type,omitempty"`
	Logic      Logic             `json:"logic,omitempty"`
	Conditions []json.RawMessage `json:"conditions,omitempty"`
}

// DecodeNode parses one node. A "type" tag wins; untagged objects are
// recognised by shape: "field" means a condition, "logic"/"conditions" a group.
func DecodeNode(data []byte) (Node, error) {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	kind := w.Type
	if kind == "" {
		switch {
		case w.Field != nil:
			kind = "condition"
		case w.Logic != "" || w.Conditions != nil:
			kind = "group"
		default:
			return nil, fmt.Errorf("filter node has neither field nor logic")
		}
	}

	switch kind {
	case "condition":
		if w.Field == nil {
			return nil, fmt.Errorf("condition without field")
		}
		value, err := decodeValue(w.Value)
		if err != nil {
			return nil, fmt.Errorf("condition %q value: %w", *w.Field, err)
		}
		return &Condition{Field: *w.Field, Operator: w.Operator, Value: value, FieldType: w.FieldType}, nil
	case "group":
		children, err := decodeNodes(w.Conditions)
		if err != nil {
			return nil, err
		}
		return &Group{Logic: w.Logic, Conditions: children}, nil
	default:
		return nil, fmt.Errorf("unknown filter node type %q", kind)
	}
}

func decodeNodes(raw []json.RawMessage) ([]Node, error) {
	nodes := make([]Node, 0, len(raw))
	for i, r := range raw {
		n, err := DecodeNode(r)
		if err != nil {
			return nil, fmt.Errorf("conditions[%d]: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// decodeValue keeps numbers as json.Number so integers stay integers.
func decodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Condition) UnmarshalJSON(data []byte) error {
	n, err := DecodeNode(data)
	if err != nil {
		return err
	}
	cond, ok := n.(*Condition)
	if !ok {
		return fmt.Errorf("expected condition, got group")
	}
	*c = *cond
	return nil
}

// MarshalJSON always writes the "type" tag.
func (c *Condition) MarshalJSON() ([]byte, error) {
	type plain Condition
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{"condition", (*plain)(c)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *Group) UnmarshalJSON(data []byte) error {
	n, err := DecodeNode(data)
	if err != nil {
		return err
	}
	grp, ok := n.(*Group)
	if !ok {
		return fmt.Errorf("expected group, got condition")
	}
	*g = *grp
	return nil
}

// MarshalJSON always writes the "type" tag.
func (g *Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string `json:"type"`
		Logic      Logic  `json:"logic"`
		Conditions []Node `json:"conditions"`
	}{"group", g.Logic, nonNil(g.Conditions)})
}

// UnmarshalJSON applies defaults for omitted paging and ordering fields.
func (r *Request) UnmarshalJSON(data []byte) error {
	var w struct {
		Logic      Logic             `json:"logic"`
		Conditions []json.RawMessage `json:"conditions"`
		Page       *int              `json:"page"`
		Limit      *int              `json:"limit"`
		SortBy     *string           `json:"sort_by"`
		SortOrder  SortOrder         `json:"sort_order"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	children, err := decodeNodes(w.Conditions)
	if err != nil {
		return err
	}

	*r = *NewRequest(w.Logic, children...)
	if w.Page != nil {
		r.Page = *w.Page
	}
	if w.Limit != nil {
		r.Limit = *w.Limit
	}
	if w.SortOrder != "" {
		r.SortOrder = w.SortOrder
	}
	r.SortBy = w.SortBy
	return nil
}
