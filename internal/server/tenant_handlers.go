package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookmehq/bookme/internal/identity"
	"github.com/bookmehq/bookme/internal/observability"
	tenantdomain "github.com/bookmehq/bookme/internal/tenant/domain"
	"github.com/bookmehq/bookme/pkg/db/pagination"
)

type registerTenantRequest struct {
	Name         string `json:"name"`
	Subdomain    string `json:"subdomain"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	BusinessType string `json:"business_type"`
}

func (s *Server) registerTenant(c *gin.Context) {
	var req registerTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	actor := "self_service"
	if id, ok := identity.FromContext(c.Request.Context()); ok {
		actor = id.UserID.String()
	}

	tenant, err := s.tenants.Register(c.Request.Context(), tenantdomain.RegistrationRequest{
		Name:         req.Name,
		Subdomain:    req.Subdomain,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		BusinessType: req.BusinessType,
		Actor:        actor,
	})
	if err != nil {
		observability.RegistrationsTotal.WithLabelValues("rejected").Inc()
		AbortWithError(c, err)
		return
	}

	observability.RegistrationsTotal.WithLabelValues("created").Inc()
	c.JSON(http.StatusCreated, tenant)
}

func (s *Server) listTenants(c *gin.Context) {
	tenants, err := s.tenants.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

func (s *Server) getTenant(c *gin.Context) {
	tenantID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tenant, err := s.tenants.Get(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (s *Server) updateTenantStatus(c *gin.Context) {
	tenantID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.tenants.UpdateStatus(c.Request.Context(), tenantID, req.Status, actorID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) updateTenantTier(c *gin.Context) {
	tenantID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		Tier string `json:"tier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.tenants.UpdateTier(c.Request.Context(), tenantID, req.Tier, actorID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) updateTenantModules(c *gin.Context) {
	tenantID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		Modules map[string]any `json:"modules"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.tenants.UpdateModules(c.Request.Context(), tenantID, req.Modules, actorID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteTenant(c *gin.Context) {
	tenantID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.tenants.Delete(c.Request.Context(), tenantID, actorID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listTenantEvents(c *gin.Context) {
	tenantID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	page := pagination.Pagination{
		PageToken: c.Query("page_token"),
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		page.PageSize = size
	}

	events, err := s.tenants.ListEvents(c.Request.Context(), tenantID, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) resyncTenantRoles(c *gin.Context) {
	tenantID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	dryRun := c.Query("dry_run") == "true"
	report, err := s.roles.ResyncSystemRoles(c.Request.Context(), tenantID, dryRun)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, ErrInvalidRequest
	}
	return id, nil
}

func actorID(c *gin.Context) string {
	if id, ok := identity.FromContext(c.Request.Context()); ok {
		return id.UserID.String()
	}
	return "system"
}
