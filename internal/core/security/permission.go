// Package security implements permission string matching.
//
// Permissions have the form "<resource>:<action>". "*" grants everything,
// "<resource>:*" grants every action on a resource, and a ":own" suffix
// ("contacts:read:own") grants the action only on rows the caller owns.
package security

import (
	"context"
	"strings"

	appctx "crmapi/internal/core/context"
)

const (
	wildcard  = "*"
	ownSuffix = ":own"
)

// Scope is the breadth of a granted permission.
type Scope int

const (
	ScopeNone Scope = iota // not granted
	ScopeOwn               // granted on owned rows only
	ScopeAll               // granted on every row
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeOwn:
		return "own"
	default:
		return "none"
	}
}

// Allows reports whether granted contains required, honouring wildcards.
// An own-scoped grant does not satisfy an unscoped requirement.
func Allows(granted []string, required string) bool {
	resource, _, _ := strings.Cut(required, ":")
	for _, p := range granted {
		switch {
		case p == wildcard, p == required:
			return true
		case resource != "" && p == resource+":"+wildcard:
			return true
		}
	}
	return false
}

// ScopeOf returns the widest scope at which granted covers required.
func ScopeOf(granted []string, required string) Scope {
	required = strings.TrimSuffix(required, ownSuffix)
	if Allows(granted, required) {
		return ScopeAll
	}
	if Allows(granted, required+ownSuffix) {
		return ScopeOwn
	}
	return ScopeNone
}

// UserScope resolves the scope for the user stored in ctx. Admins get ScopeAll.
func UserScope(ctx context.Context, required string) Scope {
	user := appctx.GetUser(ctx)
	if user == nil {
		return ScopeNone
	}
	if user.IsAdmin {
		return ScopeAll
	}
	return ScopeOf(user.Permissions, required)
}
