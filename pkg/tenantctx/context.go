// Package tenantctx carries the caller's tenant scope through a request.
// Every core entry point receives the scope explicitly via context; there
// is no ambient per-request global.
package tenantctx

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Role names recognized by the authorization policy.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleCashier = "cashier"
	RoleSystem  = "system"
)

// Scope identifies the caller for tenant filtering and role checks.
type Scope struct {
	TenantID snowflake.ID
	Actor    string
	Role     string
}

type scopeKey struct{}

// WithScope stores the caller scope in the context.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// FromContext returns the caller scope, if set.
func FromContext(ctx context.Context) (Scope, bool) {
	if ctx == nil {
		return Scope{}, false
	}
	scope, ok := ctx.Value(scopeKey{}).(Scope)
	return scope, ok
}

// TenantID returns the scoped tenant id, if set.
func TenantID(ctx context.Context) (snowflake.ID, bool) {
	scope, ok := FromContext(ctx)
	if !ok || scope.TenantID == 0 {
		return 0, false
	}
	return scope.TenantID, true
}

// Privileged reports whether the scoped role may perform tenant
// administration.
func Privileged(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleOwner, RoleSystem:
		return true
	default:
		return false
	}
}
