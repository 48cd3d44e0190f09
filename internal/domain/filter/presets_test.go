package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets_Builtin(t *testing.T) {
	presets, err := Presets()
	require.NoError(t, err)
	require.Len(t, presets, 3)

	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
		assert.NoError(t, Validate(p.Filter, Standard), p.Name)
	}
	assert.Equal(t, []string{"Active Leads", "Recent Contacts", "Tech Companies"}, names)

	active := presets[0].Filter
	assert.Equal(t, DefaultLimit, active.Limit)
	q, err := CompileRequest(active, Standard)
	require.NoError(t, err)
	assert.Equal(t, "(c.lead_status IN ($1,$2,$3))", q.Predicate)
	assert.Equal(t, []any{"new", "contacted", "qualified"}, q.Parameters)

	tech := presets[2].Filter
	assert.Equal(t, LogicOr, tech.Logic)
	assert.Len(t, tech.Conditions, 3)
}

func TestLoadPresets_Invalid(t *testing.T) {
	_, err := LoadPresets([]byte("presets: [oops"))
	assert.Error(t, err)

	_, err = LoadPresets([]byte("presets:\n  - name: broken\n    filter:\n      logic: and\n      conditions:\n        - operator: equals\n"))
	assert.Error(t, err)
}
