package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	appctx "crmapi/internal/core/context"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required string
		want     bool
	}{
		{"exact", []string{"contacts:read"}, "contacts:read", true},
		{"global wildcard", []string{"*"}, "contacts:delete", true},
		{"resource wildcard", []string{"contacts:*"}, "contacts:update", true},
		{"other resource wildcard", []string{"users:*"}, "contacts:read", false},
		{"missing", []string{"contacts:create"}, "contacts:read", false},
		{"own does not cover unscoped", []string{"contacts:read:own"}, "contacts:read", false},
		{"empty", nil, "contacts:read", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allows(tt.granted, tt.required))
		})
	}
}

func TestScopeOf(t *testing.T) {
	assert.Equal(t, ScopeAll, ScopeOf([]string{"contacts:read"}, "contacts:read"))
	assert.Equal(t, ScopeAll, ScopeOf([]string{"contacts:read", "contacts:read:own"}, "contacts:read"))
	assert.Equal(t, ScopeOwn, ScopeOf([]string{"contacts:read:own"}, "contacts:read"))
	assert.Equal(t, ScopeOwn, ScopeOf([]string{"contacts:read:own"}, "contacts:read:own"))
	assert.Equal(t, ScopeAll, ScopeOf([]string{"contacts:*"}, "contacts:read:own"))
	assert.Equal(t, ScopeNone, ScopeOf([]string{"users:read"}, "contacts:read"))
}

func TestUserScope(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ScopeNone, UserScope(ctx, "contacts:read"))

	admin := appctx.WithUser(ctx, &appctx.UserContext{UserID: "u1", IsAdmin: true})
	assert.Equal(t, ScopeAll, UserScope(admin, "contacts:read"))

	own := appctx.WithUser(ctx, &appctx.UserContext{UserID: "u2", Permissions: []string{"contacts:read:own"}})
	assert.Equal(t, ScopeOwn, UserScope(own, "contacts:read"))
	assert.Equal(t, "own", UserScope(own, "contacts:read").String())
}
