package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/mesa/internal/authorization"
	"github.com/smallbiznis/mesa/pkg/repository"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
)

const (
	headerTenantID  = "X-Tenant-ID"
	headerActor     = "X-Actor"
	headerActorRole = "X-Actor-Role"
)

// ScopeMiddleware binds the caller's tenant scope to the request context.
// Every store below the handlers filters on this scope; a request without
// a tenant never reaches tenant-owned rows.
func ScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := tenantctx.Scope{
			Actor: strings.TrimSpace(c.GetHeader(headerActor)),
			Role:  strings.ToLower(strings.TrimSpace(c.GetHeader(headerActorRole))),
		}

		if raw := strings.TrimSpace(c.GetHeader(headerTenantID)); raw != "" {
			id, err := snowflake.ParseString(raw)
			if err != nil {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			scope.TenantID = id
		}

		c.Request = c.Request.WithContext(tenantctx.WithScope(c.Request.Context(), scope))
		c.Next()
	}
}

// RequireTenant rejects requests that carry no tenant scope. Admin routes
// skip it; everything else sits behind it.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := tenantctx.TenantID(c.Request.Context()); !ok {
			AbortWithError(c, repository.ErrNoTenant)
			return
		}
		c.Next()
	}
}

// Authorize gates a route on a casbin object/action pair.
func Authorize(authz authorization.Service, object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.Authorize(c.Request.Context(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
