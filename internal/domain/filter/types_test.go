package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_UnmarshalDefaults(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"logic":"and","conditions":[]}`), &req))

	assert.Equal(t, LogicAnd, req.Logic)
	assert.Equal(t, DefaultPage, req.Page)
	assert.Equal(t, DefaultLimit, req.Limit)
	assert.Equal(t, SortDesc, req.SortOrder)
	assert.Nil(t, req.SortBy)
	assert.NotNil(t, req.Conditions)
}

func TestRequest_UnmarshalTree(t *testing.T) {
	body := `{
		"logic": "or",
		"conditions": [
			{"field": "company", "operator": "contains", "value": "Tech"},
			{"type": "group", "logic": "and", "conditions": [
				{"type": "condition", "field": "annual_revenue", "operator": "between", "value": [10, 20.5], "field_type": "number"}
			]}
		],
		"page": 3,
		"limit": 25,
		"sort_by": "last_name",
		"sort_order": "asc"
	}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, 25, req.Limit)
	assert.Equal(t, SortAsc, req.SortOrder)
	require.NotNil(t, req.SortBy)
	assert.Equal(t, "last_name", *req.SortBy)
	assert.Equal(t, 50, req.Offset())

	require.Len(t, req.Conditions, 2)
	first, ok := req.Conditions[0].(*Condition)
	require.True(t, ok)
	assert.Equal(t, "company", first.Field)
	assert.Equal(t, Contains, first.Operator)
	assert.Equal(t, "Tech", first.Value)

	group, ok := req.Conditions[1].(*Group)
	require.True(t, ok)
	assert.Equal(t, LogicAnd, group.Logic)
	require.Len(t, group.Conditions, 1)

	inner := group.Conditions[0].(*Condition)
	assert.Equal(t, []any{json.Number("10"), json.Number("20.5")}, inner.Value)
	require.NotNil(t, inner.FieldType)
	assert.Equal(t, TypeNumber, *inner.FieldType)
}

func TestDecodeNode_Errors(t *testing.T) {
	for _, body := range []string{
		`{"operator":"equals"}`,
		`{"type":"condition","operator":"equals"}`,
		`{"type":"leaf","field":"x"}`,
		`{"logic":"and","conditions":[{"value":1}]}`,
		`[]`,
	} {
		_, err := DecodeNode([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestNode_MarshalWritesTypeTag(t *testing.T) {
	hint := TypeText
	req := NewRequest(LogicAnd,
		&Condition{Field: "city", Operator: Equals, Value: "Austin", FieldType: &hint},
		Or(),
	)

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"logic": "and",
		"conditions": [
			{"type": "condition", "field": "city", "operator": "equals", "value": "Austin", "field_type": "text"},
			{"type": "group", "logic": "or", "conditions": []}
		],
		"page": 1,
		"limit": 50,
		"sort_order": "desc"
	}`, string(raw))

	var back Request
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, req, &back)
}

func TestEnums_Valid(t *testing.T) {
	for _, op := range AllOperators {
		assert.True(t, op.Valid(), op)
	}
	assert.False(t, Operator("like").Valid())
	assert.True(t, LogicOr.Valid())
	assert.False(t, Logic("xor").Valid())
	assert.True(t, TypeSelect.Valid())
	assert.False(t, SemanticType("json").Valid())
	assert.True(t, SortAsc.Valid())
	assert.False(t, SortOrder("up").Valid())
}
