package customfield

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/id"
)

func TestValue_Set(t *testing.T) {
	tests := []struct {
		name      string
		fieldType FieldType
		raw       string
		check     func(t *testing.T, v *Value)
	}{
		{
			name: "text", fieldType: TypeText, raw: "hello",
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, "hello", *v.Text)
				assert.Nil(t, v.Number)
			},
		},
		{
			name: "number keeps text copy", fieldType: TypeNumber, raw: "1250000.50",
			check: func(t *testing.T, v *Value) {
				require.NotNil(t, v.Number)
				assert.True(t, decimal.RequireFromString("1250000.5").Equal(*v.Number))
				assert.Equal(t, "1250000.50", *v.Text)
			},
		},
		{
			name: "boolean yes", fieldType: TypeBoolean, raw: "Yes",
			check: func(t *testing.T, v *Value) {
				assert.True(t, *v.Boolean)
				assert.Equal(t, "true", *v.Text)
			},
		},
		{
			name: "boolean 0", fieldType: TypeBoolean, raw: "0",
			check: func(t *testing.T, v *Value) {
				assert.False(t, *v.Boolean)
				assert.Equal(t, "false", *v.Text)
			},
		},
		{
			name: "date", fieldType: TypeDate, raw: "2024-03-01",
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *v.Date)
			},
		},
		{
			name: "multi select canonical json", fieldType: TypeMultiSelect, raw: `[ "go", "sql" ]`,
			check: func(t *testing.T, v *Value) {
				assert.JSONEq(t, `["go","sql"]`, string(v.JSON))
				assert.Equal(t, `["go","sql"]`, *v.Text)
			},
		},
		{
			name: "unknown type stored as text", fieldType: FieldType("color"), raw: "#fff",
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, "#fff", *v.Text)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValue(id.New(), id.New())
			require.NoError(t, v.Set(tt.fieldType, tt.raw))
			tt.check(t, v)
		})
	}
}

func TestValue_SetRejects(t *testing.T) {
	tests := []struct {
		fieldType FieldType
		raw       string
		message   string
	}{
		{TypeNumber, "ten", "Invalid number format"},
		{TypeBoolean, "maybe", "Invalid boolean format"},
		{TypeDate, "01/03/2024", "Invalid date format (expected YYYY-MM-DD)"},
		{TypeMultiSelect, "go,sql", "Invalid multi_select format (expected JSON array)"},
	}

	for _, tt := range tests {
		t.Run(string(tt.fieldType), func(t *testing.T) {
			err := NewValue(id.New(), id.New()).Set(tt.fieldType, tt.raw)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestValue_SetClearsPreviousColumns(t *testing.T) {
	v := NewValue(id.New(), id.New())
	require.NoError(t, v.Set(TypeNumber, "5"))
	require.NoError(t, v.Set(TypeText, "five"))

	assert.Nil(t, v.Number)
	assert.Equal(t, "five", *v.Text)
}

func TestValue_Typed(t *testing.T) {
	v := NewValue(id.New(), id.New())

	require.NoError(t, v.Set(TypeNumber, "42"))
	assert.True(t, decimal.NewFromInt(42).Equal(v.Typed(TypeNumber).(decimal.Decimal)))

	require.NoError(t, v.Set(TypeDate, "2024-12-31"))
	assert.Equal(t, "2024-12-31", v.Typed(TypeDate))

	require.NoError(t, v.Set(TypeBoolean, "no"))
	assert.Equal(t, false, v.Typed(TypeBoolean))

	require.NoError(t, v.Set(TypeMultiSelect, `["a"]`))
	assert.Equal(t, []string{"a"}, v.Typed(TypeMultiSelect))

	require.NoError(t, v.Set(TypeSelect, "gold"))
	assert.Equal(t, "gold", v.Typed(TypeSelect))

	assert.Nil(t, (&Value{}).Typed(TypeText))
}
