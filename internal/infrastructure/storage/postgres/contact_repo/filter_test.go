package contact_repo

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmapi/internal/domain/contact"
	"crmapi/internal/domain/filter"
)

const joins = " FROM contacts c" +
	" LEFT JOIN contact_custom_values ccv ON c.id = ccv.contact_id" +
	" LEFT JOIN custom_fields cf ON ccv.custom_field_id = cf.id"

func strPtr(s string) *string { return &s }

func TestCountStatement(t *testing.T) {
	sql, args, err := countStatement(filter.CompiledQuery{Predicate: "1=1", NextPlaceholder: 1})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(DISTINCT c.id)"+joins+" WHERE c.is_active = true AND (1=1)", sql)
	assert.Empty(t, args)
}

func TestDataStatement_DefaultOrder(t *testing.T) {
	q := filter.CompiledQuery{
		Predicate:       "(c.lead_status IN ($1,$2))",
		Parameters:      []any{"new", "contacted"},
		NextPlaceholder: 3,
	}
	sql, args, err := dataStatement(q, contact.Page{Limit: 50, Offset: 100, SortOrder: filter.SortDesc})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "SELECT c.id, c.first_name, c.last_name, c.email"))
	assert.Contains(t, sql, "CONCAT(c.first_name, ' ', c.last_name) AS full_name")
	assert.Contains(t, sql, "AS custom_fields"+joins)
	assert.Contains(t, sql, " WHERE c.is_active = true AND ((c.lead_status IN ($1,$2)))")
	assert.Contains(t, sql, " GROUP BY "+strings.Join(summaryColumns, ", "))
	assert.True(t, strings.HasSuffix(sql, " ORDER BY c.updated_at DESC LIMIT 50 OFFSET 100"))
	assert.Equal(t, []any{"new", "contacted"}, args)
}

func TestDataStatement_Sort(t *testing.T) {
	q := filter.CompiledQuery{Predicate: "(c.city = $1)", Parameters: []any{"Oslo"}, NextPlaceholder: 2}

	sql, args, err := dataStatement(q, contact.Page{Limit: 10, SortBy: strPtr("email"), SortOrder: filter.SortAsc})
	require.NoError(t, err)
	assert.Contains(t, sql, " ORDER BY c.email ASC LIMIT 10")
	assert.Equal(t, []any{"Oslo"}, args)

	sql, args, err = dataStatement(q, contact.Page{Limit: 10, SortBy: strPtr("industry"), SortOrder: filter.SortDesc})
	require.NoError(t, err)
	assert.Contains(t, sql, " ORDER BY ("+customAgg+")->>$2 DESC LIMIT 10")
	assert.Equal(t, []any{"Oslo", "industry"}, args)
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

func maxPlaceholder(sql string) int {
	highest := 0
	for _, m := range placeholderRe.FindAllStringSubmatch(sql, -1) {
		n := 0
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		if n > highest {
			highest = n
		}
	}
	return highest
}

// The page and the count must filter identically or totals drift from rows.
func TestStatements_ShareJoinsAndPredicate(t *testing.T) {
	catalog := filter.NewCatalog(filter.NewCustomFields([]filter.CustomFieldSpec{
		{ID: "f1", Name: "industry", FieldType: "select", Active: true},
		{ID: "f2", Name: "annual_revenue", FieldType: "number", Active: true},
	}))
	req := filter.NewRequest(filter.LogicOr,
		filter.Cond("industry", filter.In, []any{"Technology", "Finance"}),
		filter.And(
			filter.Cond("annual_revenue", filter.Between, []any{json.Number("1000"), json.Number("5000.5")}),
			filter.Cond("company", filter.Contains, "Acme"),
		),
	)
	req.SortBy = strPtr("annual_revenue")

	q, err := filter.CompileRequest(req, catalog)
	require.NoError(t, err)

	dataSQL, dataArgs, err := dataStatement(q, contact.PageOf(req))
	require.NoError(t, err)
	countSQL, countArgs, err := countStatement(q)
	require.NoError(t, err)

	dataFrom := dataSQL[strings.Index(dataSQL, joins):strings.Index(dataSQL, " GROUP BY")]
	countFrom := countSQL[strings.Index(countSQL, joins):]
	assert.Equal(t, countFrom, dataFrom)

	assert.Equal(t, len(countArgs), maxPlaceholder(countSQL))
	assert.Equal(t, len(dataArgs), maxPlaceholder(dataSQL))
	assert.Equal(t, countArgs, dataArgs[:len(countArgs)])
	assert.Equal(t, "annual_revenue", dataArgs[len(dataArgs)-1])
	assert.Contains(t, dataArgs, int64(1000))
	assert.Contains(t, dataArgs, 5000.5)
}

func TestBindValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"integer", json.Number("42"), int64(42)},
		{"float", json.Number("4.25"), 4.25},
		{"string", "x", "x"},
		{"bool", true, true},
		{"null", nil, nil},
		{"array", []any{"a", json.Number("1")}, `["a",1]`},
		{"object", map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bindValue(tt.in))
		})
	}
}
