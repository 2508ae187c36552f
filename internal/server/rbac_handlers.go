package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookmehq/bookme/internal/identity"
	rbacdomain "github.com/bookmehq/bookme/internal/rbac/domain"
	"github.com/bookmehq/bookme/pkg/tenantctx"
)

func (s *Server) listRoles(c *gin.Context) {
	tc, _ := tenantctx.FromContext(c.Request.Context())

	roles, err := s.roles.ListRoles(c.Request.Context(), tc.TenantID())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (s *Server) getRole(c *gin.Context) {
	tc, _ := tenantctx.FromContext(c.Request.Context())
	roleID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	role, err := s.roles.GetRole(c.Request.Context(), tc.TenantID(), roleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

type createRoleRequest struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func (s *Server) createRole(c *gin.Context) {
	tc, _ := tenantctx.FromContext(c.Request.Context())

	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	role, err := s.roles.CreateRole(c.Request.Context(), tc.TenantID(), rbacdomain.CreateRoleRequest{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

type updateRoleRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
}

func (s *Server) updateRole(c *gin.Context) {
	tc, _ := tenantctx.FromContext(c.Request.Context())
	roleID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	role, err := s.roles.UpdateRole(c.Request.Context(), tc.TenantID(), roleID, rbacdomain.UpdateRoleRequest{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (s *Server) deactivateRole(c *gin.Context) {
	tc, _ := tenantctx.FromContext(c.Request.Context())
	roleID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.roles.DeactivateRole(c.Request.Context(), tc.TenantID(), roleID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteRole(c *gin.Context) {
	tc, _ := tenantctx.FromContext(c.Request.Context())
	roleID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.roles.DeleteRole(c.Request.Context(), tc.TenantID(), roleID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// myPermissions returns the caller's effective permission set in the
// bound tenant. Useful for clients building their UI.
func (s *Server) myPermissions(c *gin.Context) {
	ctx := c.Request.Context()
	tc, _ := tenantctx.FromContext(ctx)
	id, _ := identity.FromContext(ctx)

	perms, err := s.roles.EffectivePermissions(ctx, tc.TenantID(), rbacdomain.Subject{
		UserID:    id.UserID,
		Superuser: id.Superuser,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if perms == nil {
		perms = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}
