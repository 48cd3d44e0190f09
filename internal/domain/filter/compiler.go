package filter

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"crmapi/internal/core/apperror"
)

// CompiledQuery is a parameterized boolean SQL expression.
//
// Placeholders are numbered $1..$n in the order their values appear in
// Parameters, and NextPlaceholder is always len(Parameters)+1.
type CompiledQuery struct {
	Predicate       string
	Parameters      []any
	NextPlaceholder int
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// Check panics when the predicate and the parameter list disagree.
// A mismatch means the compiler mis-numbered a placeholder.
func (q CompiledQuery) Check() {
	if len(q.Parameters)+1 != q.NextPlaceholder {
		panic(fmt.Sprintf("filter: %d parameters but next placeholder is $%d", len(q.Parameters), q.NextPlaceholder))
	}
	seen := make(map[int]bool, len(q.Parameters))
	for _, m := range placeholderRe.FindAllStringSubmatch(q.Predicate, -1) {
		n, _ := strconv.Atoi(m[1])
		if n < 1 || n > len(q.Parameters) {
			panic(fmt.Sprintf("filter: placeholder $%d out of range 1..%d", n, len(q.Parameters)))
		}
		seen[n] = true
	}
	if len(seen) != len(q.Parameters) {
		panic(fmt.Sprintf("filter: %d parameters but %d distinct placeholders", len(q.Parameters), len(seen)))
	}
}

// Builder accumulates parameters for one compilation. It is not shared
// between calls.
type Builder struct {
	resolver Resolver
	params   []any
	next     int
}

// NewBuilder returns a builder whose first placeholder is $1.
func NewBuilder(resolver Resolver) *Builder {
	return &Builder{resolver: resolver, next: 1}
}

// bind appends v and returns its placeholder.
func (b *Builder) bind(v any) string {
	b.params = append(b.params, v)
	p := "$" + strconv.Itoa(b.next)
	b.next++
	return p
}

func (b *Builder) query(predicate string) CompiledQuery {
	return CompiledQuery{
		Predicate:       predicate,
		Parameters:      slices.Clone(b.params),
		NextPlaceholder: b.next,
	}
}

// Compile compiles any node. Groups are always parenthesised.
func Compile(n Node, resolver Resolver) (CompiledQuery, error) {
	b := NewBuilder(resolver)
	pred, err := b.node(n)
	if err != nil {
		return CompiledQuery{}, err
	}
	return b.query(pred), nil
}

// CompileRoot compiles a request-level group. A root with exactly one
// child renders as that child.
func CompileRoot(root *Group, resolver Resolver) (CompiledQuery, error) {
	if len(root.Conditions) == 1 {
		return Compile(root.Conditions[0], resolver)
	}
	return Compile(root, resolver)
}

// CompileRequest compiles the root of req.
func CompileRequest(req *Request, resolver Resolver) (CompiledQuery, error) {
	return CompileRoot(req.Root(), resolver)
}

func (b *Builder) node(n Node) (string, error) {
	switch n := n.(type) {
	case *Condition:
		return b.condition(n)
	case *Group:
		return b.group(n)
	default:
		return "", apperror.NewValidation(fmt.Sprintf("unexpected filter node %T", n))
	}
}

func (b *Builder) group(g *Group) (string, error) {
	if len(g.Conditions) == 0 {
		return "1=1", nil
	}

	var sep string
	switch g.Logic {
	case LogicAnd:
		sep = " AND "
	case LogicOr:
		sep = " OR "
	default:
		return "", apperror.NewValidation(fmt.Sprintf("Unknown logic operator '%s'", g.Logic))
	}

	parts := make([]string, 0, len(g.Conditions))
	for _, child := range g.Conditions {
		p, err := b.node(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (b *Builder) condition(c *Condition) (string, error) {
	def, ok := b.resolver.Resolve(c.Field)
	if !ok {
		return "", apperror.NewValidation(fmt.Sprintf("Unknown field '%s'", c.Field)).
			WithDetail("field", c.Field)
	}

	var (
		expr string
		err  error
	)
	if def.IsCustom() {
		expr, err = b.customCondition(def, c.Operator, c.Value)
	} else {
		expr, err = b.columnCondition(def.Column, c.Operator, c.Value)
	}
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok {
			appErr.WithDetail("field", c.Field).WithDetail("operator", string(c.Operator))
		}
		return "", err
	}
	return "(" + expr + ")", nil
}

// columnCondition renders op against a fixed, allow-listed column.
func (b *Builder) columnCondition(col string, op Operator, value any) (string, error) {
	switch op {
	case Equals, NotEquals, GreaterThan, LessThan, GreaterEqual, LessEqual, After, Before:
		return col + " " + comparison[op] + " " + b.bind(value), nil
	case Contains:
		return col + " ILIKE '%' || " + b.bind(value) + " || '%'", nil
	case StartsWith:
		return col + " ILIKE " + b.bind(value) + " || '%'", nil
	case EndsWith:
		return col + " ILIKE '%' || " + b.bind(value), nil
	case IsEmpty:
		return col + " IS NULL OR " + col + " = ''", nil
	case IsNotEmpty:
		return col + " IS NOT NULL AND " + col + " != ''", nil
	case Between:
		lo, hi, err := b.bindRange(value)
		if err != nil {
			return "", err
		}
		return col + " BETWEEN " + lo + " AND " + hi, nil
	case In, NotIn:
		items, ok := asList(value)
		if !ok {
			return "", apperror.NewValidation(fmt.Sprintf("%s operator requires array value", opLabel(op)))
		}
		if len(items) == 0 {
			return emptyList(op), nil
		}
		kw := " IN "
		if op == NotIn {
			kw = " NOT IN "
		}
		return col + kw + "(" + b.bindList(items) + ")", nil
	default:
		return "", apperror.NewValidation(fmt.Sprintf("Unknown operator '%s'", op))
	}
}

var comparison = map[Operator]string{
	Equals:       "=",
	NotEquals:    "!=",
	GreaterThan:  ">",
	LessThan:     "<",
	GreaterEqual: ">=",
	LessEqual:    "<=",
	After:        ">",
	Before:       "<",
}

const customExistsPrefix = "SELECT 1 FROM contact_custom_values ccv2 " +
	"JOIN custom_fields cf2 ON ccv2.custom_field_id = cf2.id " +
	"WHERE ccv2.contact_id = " + ContactAlias + ".id AND cf2.field_name = "

// customCondition renders a correlated EXISTS over the custom value table.
// The value column is picked from the registry type of the field.
func (b *Builder) customCondition(def FieldDefinition, op Operator, value any) (string, error) {
	if !customSupported(op) {
		return "", apperror.NewUnsupportedOperation(fmt.Sprintf("Operator '%s' not supported for custom fields", op))
	}

	var items []any
	if op == In || op == NotIn {
		var ok bool
		if items, ok = asList(value); !ok {
			return "", apperror.NewValidation(fmt.Sprintf("%s operator requires array value", opLabel(op)))
		}
		if len(items) == 0 {
			return emptyList(op), nil
		}
	}

	col := valueColumn(def.CustomType)
	multi := def.CustomType == "multi_select"

	// The field name placeholder must be bound before the value placeholders.
	name := b.bind(def.Name)
	wrap := func(negate bool, test string) string {
		kw := "EXISTS"
		if negate {
			kw = "NOT EXISTS"
		}
		sub := customExistsPrefix + name
		if test != "" {
			sub += " AND " + test
		}
		return kw + " (" + sub + ")"
	}

	switch op {
	case Equals, NotEquals:
		var test string
		if multi {
			test = col + " @> to_jsonb(" + b.bind(value) + "::text)"
		} else {
			test = col + " = " + b.bind(value)
		}
		return wrap(op == NotEquals, test), nil
	case Contains:
		return wrap(false, col+" ILIKE '%' || "+b.bind(value)+" || '%'"), nil
	case GreaterThan, LessThan, GreaterEqual, LessEqual, After, Before:
		return wrap(false, col+" "+comparison[op]+" "+b.bind(value)), nil
	case Between:
		lo, hi, err := b.bindRange(value)
		if err != nil {
			return "", err
		}
		return wrap(false, col+" BETWEEN "+lo+" AND "+hi), nil
	case In, NotIn:
		var test string
		if multi {
			alts := make([]string, len(items))
			for i, item := range items {
				alts[i] = col + " @> to_jsonb(" + b.bind(item) + "::text)"
			}
			test = "(" + strings.Join(alts, " OR ") + ")"
		} else {
			test = col + " IN (" + b.bindList(items) + ")"
		}
		return wrap(op == NotIn, test), nil
	case IsEmpty:
		return wrap(true, ""), nil
	case IsNotEmpty:
		return wrap(false, ""), nil
	default:
		return "", apperror.NewValidation(fmt.Sprintf("Unknown operator '%s'", op))
	}
}

// bindRange binds the two ends of a BETWEEN.
func (b *Builder) bindRange(value any) (string, string, error) {
	items, ok := asList(value)
	if !ok || len(items) != 2 {
		return "", "", apperror.NewValidation("BETWEEN operator requires array with 2 values")
	}
	return b.bind(items[0]), b.bind(items[1]), nil
}

// bindList binds each element in order and joins the placeholders.
func (b *Builder) bindList(items []any) string {
	ph := make([]string, len(items))
	for i, item := range items {
		ph[i] = b.bind(item)
	}
	return strings.Join(ph, ",")
}

// emptyList renders IN () as false and NOT IN () as true.
func emptyList(op Operator) string {
	if op == NotIn {
		return "1=1"
	}
	return "1=0"
}

// valueColumn maps a registry field_type onto its typed storage column.
func valueColumn(fieldType string) string {
	switch fieldType {
	case "number":
		return "ccv2.value_number"
	case "date":
		return "ccv2.value_date"
	case "boolean":
		return "ccv2.value_boolean"
	case "multi_select":
		return "ccv2.value_json"
	default:
		return "ccv2.value"
	}
}
