package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bookmehq/bookme/internal/identity"
	rbacservice "github.com/bookmehq/bookme/internal/rbac/service"
	"github.com/bookmehq/bookme/pkg/tenantctx"
)

// HostValidation rejects requests whose Host header is neither a
// registered tenant domain, the platform base wildcard, nor on the
// allow-list. Runs before anything touches tenant state.
func (s *Server) HostValidation() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.hosts.Validate(c.Request.Context(), c.Request.Host); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// TenantBinding resolves the request hostname to its tenant and installs
// the binding plus a fresh permission cache into the request context.
// Hostnames outside the directory bind to the platform-level context.
func (s *Server) TenantBinding() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tc, err := s.binder.Bind(ctx, c.Request.Host)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx = tenantctx.With(ctx, tc)
		ctx = rbacservice.WithRequestCache(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AuthRequired resolves the bearer token into an identity.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			AbortWithError(c, identity.ErrInvalidToken)
			return
		}

		id, err := s.identity.ResolveToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(identity.With(c.Request.Context(), id))
		c.Next()
	}
}

// RequirePermission authorizes the request against the bound tenant.
// These endpoints only exist on tenant hostnames.
func (s *Server) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, _ := identity.FromContext(ctx)
		tc, ok := tenantctx.FromContext(ctx)
		if !ok {
			AbortWithError(c, ErrTenantRequired)
			return
		}

		if _, err := s.guard.Authorize(ctx, id, tc, permission); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequirePlatformStaff gates platform-level administration endpoints.
func (s *Server) RequirePlatformStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, _ := identity.FromContext(ctx)

		if _, err := s.guard.Authorize(ctx, id, nil, ""); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// SignupRateLimit bounds registrations per client address.
func (s *Server) SignupRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.signupLimiter.Allow(c.Request.Context(), c.ClientIP()) {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
