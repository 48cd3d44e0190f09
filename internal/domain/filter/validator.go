package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"

	"crmapi/internal/core/apperror"
)

// slowThreshold is the leaf count above which a filter is flagged "slow".
const slowThreshold = 20

// Violation is one structural problem found in a request.
type Violation struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Path     string   `json:"path,omitempty"`
	Field    string   `json:"field,omitempty"`
	Operator Operator `json:"operator,omitempty"`
	Expected int      `json:"expected,omitempty"`
	Actual   int      `json:"actual,omitempty"`
}

// AppError converts the violation into an API error.
func (v Violation) AppError() *apperror.AppError {
	var err *apperror.AppError
	if v.Code == apperror.CodeUnsupportedOperation {
		err = apperror.NewUnsupportedOperation(v.Message)
	} else {
		err = apperror.NewValidation(v.Message)
	}
	if v.Path != "" {
		err.WithDetail("path", v.Path)
	}
	if v.Field != "" {
		err.WithDetail("field", v.Field)
	}
	if v.Operator != "" {
		err.WithDetail("operator", string(v.Operator))
	}
	if v.Expected != 0 {
		err.WithDetail("expected", v.Expected).WithDetail("actual", v.Actual)
	}
	return err
}

// Validate checks the request against the catalog and returns the first
// violation as *apperror.AppError, or nil.
func Validate(req *Request, resolver Resolver) error {
	violations := Collect(req, resolver)
	if len(violations) == 0 {
		return nil
	}
	return violations[0].AppError()
}

// Collect returns every violation in the request, in tree order.
func Collect(req *Request, resolver Resolver) []Violation {
	c := &collector{resolver: resolver}

	if req.Page < 1 {
		c.add(Violation{Code: apperror.CodeValidation, Message: "Page must be at least 1", Path: "page"})
	}
	if req.Limit < 1 || req.Limit > MaxLimit {
		c.add(Violation{Code: apperror.CodeValidation, Message: fmt.Sprintf("Limit must be between 1 and %d", MaxLimit), Path: "limit"})
	} else if req.Page > 1 && req.Page-1 > math.MaxInt/req.Limit {
		// (page-1)*limit must not overflow the OFFSET.
		c.add(Violation{Code: apperror.CodeValidation, Message: "Page is too large", Path: "page"})
	}
	if !req.SortOrder.Valid() {
		c.add(Violation{Code: apperror.CodeValidation, Message: fmt.Sprintf("Unknown sort order '%s'", req.SortOrder), Path: "sort_order"})
	}
	if req.SortBy != nil && *req.SortBy == "" {
		c.add(Violation{Code: apperror.CodeValidation, Message: "sort_by must not be empty", Path: "sort_by"})
	}

	c.group(req.Root(), "")
	return c.violations
}

type collector struct {
	resolver   Resolver
	violations []Violation
}

func (c *collector) add(v Violation) {
	c.violations = append(c.violations, v)
}

func (c *collector) node(n Node, path string) {
	switch n := n.(type) {
	case *Condition:
		c.condition(n, path)
	case *Group:
		c.group(n, path)
	case nil:
		c.add(Violation{Code: apperror.CodeValidation, Message: "Empty filter node", Path: path})
	default:
		panic(fmt.Sprintf("filter: unexpected node type %T", n))
	}
}

func (c *collector) group(g *Group, path string) {
	if !g.Logic.Valid() {
		c.add(Violation{Code: apperror.CodeValidation, Message: fmt.Sprintf("Unknown logic operator '%s'", g.Logic), Path: joinPath(path, "logic")})
	}
	for i, child := range g.Conditions {
		c.node(child, fmt.Sprintf("%s[%d]", joinPath(path, "conditions"), i))
	}
}

func (c *collector) condition(cond *Condition, path string) {
	base := Violation{Code: apperror.CodeValidation, Path: path, Field: cond.Field, Operator: cond.Operator}

	if !cond.Operator.Valid() {
		base.Message = fmt.Sprintf("Unknown operator '%s'", cond.Operator)
		c.add(base)
		return
	}

	def, ok := c.resolver.Resolve(cond.Field)
	if !ok {
		base.Message = fmt.Sprintf("Unknown field '%s'", cond.Field)
		c.add(base)
		return
	}

	if !def.Allows(cond.Operator) {
		base.Message = fmt.Sprintf("Operator '%s' is not allowed for field '%s' of type %s", cond.Operator, def.Name, def.Type)
		c.add(base)
		return
	}

	if def.IsCustom() && !customSupported(cond.Operator) {
		base.Code = apperror.CodeUnsupportedOperation
		base.Message = fmt.Sprintf("Operator '%s' not supported for custom fields", cond.Operator)
		c.add(base)
		return
	}

	if msg, expected, actual := checkValue(def, cond.Operator, cond.Value); msg != "" {
		base.Message = msg
		base.Expected, base.Actual = expected, actual
		c.add(base)
	}
}

// checkValue verifies the value shape for op. It returns an empty message
// when the value is acceptable.
func checkValue(def FieldDefinition, op Operator, value any) (msg string, expected, actual int) {
	if op.takesNoValue() {
		return "", 0, 0
	}

	if op.takesList() {
		items, ok := asList(value)
		if !ok {
			if op == Between {
				return "BETWEEN operator requires array value", 0, 0
			}
			return fmt.Sprintf("%s operator requires array value", opLabel(op)), 0, 0
		}
		if op == Between && len(items) != 2 {
			return "BETWEEN operator requires array with 2 values", 2, len(items)
		}
		for i, item := range items {
			if m := checkScalar(def, item); m != "" {
				return fmt.Sprintf("%s (element %d)", m, i), 0, 0
			}
		}
		return "", 0, 0
	}

	if _, isList := asList(value); isList {
		return fmt.Sprintf("Operator '%s' does not accept an array", op), 0, 0
	}
	return checkScalar(def, value), 0, 0
}

func checkScalar(def FieldDefinition, v any) string {
	switch v.(type) {
	case nil:
		return fmt.Sprintf("Value for field '%s' is required", def.Name)
	case map[string]any:
		return fmt.Sprintf("Value for field '%s' must not be an object", def.Name)
	}

	switch def.Type {
	case TypeNumber:
		if !isNumber(v) {
			return fmt.Sprintf("Value for field '%s' must be a number", def.Name)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("Value for field '%s' must be a boolean", def.Name)
		}
	case TypeDate:
		s, ok := v.(string)
		if !ok || !isDate(s) {
			return fmt.Sprintf("Value for field '%s' must be a date (YYYY-MM-DD or RFC 3339)", def.Name)
		}
	default:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("Value for field '%s' must be a string", def.Name)
		}
		if def.Format == FormatUUID {
			if _, err := uuid.Parse(s); err != nil {
				return fmt.Sprintf("Value for field '%s' must be a UUID", def.Name)
			}
		}
	}
	return ""
}

// customSupported lists operators that have a custom-field compilation.
func customSupported(op Operator) bool {
	return op != StartsWith && op != EndsWith
}

func opLabel(op Operator) string {
	if op == NotIn {
		return "NOT IN"
	}
	return "IN"
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// asList returns the elements of any slice value except []byte.
func asList(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case json.Number:
		_, err := n.Float64()
		return err == nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}

func isDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// --- advisory analysis ---

// Analysis is the non-blocking review of a request.
type Analysis struct {
	IsValid              bool     `json:"is_valid"`
	Warnings             []string `json:"warnings"`
	Suggestions          []string `json:"suggestions"`
	EstimatedPerformance string   `json:"estimated_performance"`
}

// Analyze flags large and degenerate filters. It never rejects a request.
func Analyze(req *Request) Analysis {
	a := Analysis{
		IsValid:              true,
		Warnings:             []string{},
		Suggestions:          []string{},
		EstimatedPerformance: "good",
	}

	if a.EstimatedPerformance = estimate(CountConditions(req.Root())); a.EstimatedPerformance == "slow" {
		a.Warnings = append(a.Warnings, "Large number of conditions may impact performance")
	}
	if hasEmptyGroups(req.Conditions) {
		a.Warnings = append(a.Warnings, "Filter contains empty groups")
	}
	if hasRedundantConditions(req.Conditions) {
		a.Suggestions = append(a.Suggestions, "Consider combining similar conditions")
	}
	return a
}

// CountConditions returns the number of leaf conditions under n.
func CountConditions(n Node) int {
	switch n := n.(type) {
	case *Condition:
		return 1
	case *Group:
		total := 0
		for _, child := range n.Conditions {
			total += CountConditions(child)
		}
		return total
	default:
		return 0
	}
}

func hasEmptyGroups(nodes []Node) bool {
	for _, n := range nodes {
		if g, ok := n.(*Group); ok {
			if len(g.Conditions) == 0 || hasEmptyGroups(g.Conditions) {
				return true
			}
		}
	}
	return false
}

// hasRedundantConditions is an extension point for duplicate detection.
// It currently reports nothing.
func hasRedundantConditions(_ []Node) bool {
	return false
}
