package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookmehq/bookme/internal/identity"
	userdomain "github.com/bookmehq/bookme/internal/user/domain"
	"github.com/bookmehq/bookme/pkg/tenantctx"
)

type createUserRequest struct {
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	TenantID  *uuid.UUID `json:"tenant_id"`
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.users.CreateUser(c.Request.Context(), userdomain.CreateUserRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		TenantID:  req.TenantID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type privilegeFlagsRequest struct {
	IsPlatformStaff *bool `json:"is_platform_staff"`
	IsSuperuser     *bool `json:"is_superuser"`
	IsActive        *bool `json:"is_active"`
}

func (s *Server) setPrivilegeFlags(c *gin.Context) {
	userID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req privilegeFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	id, _ := identity.FromContext(c.Request.Context())
	user, err := s.users.SetPrivilegeFlags(c.Request.Context(), id.UserID, userID, userdomain.PrivilegeFlagsRequest{
		IsPlatformStaff: req.IsPlatformStaff,
		IsSuperuser:     req.IsSuperuser,
		IsActive:        req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) listMembers(c *gin.Context) {
	tc, _ := tenantctx.FromContext(c.Request.Context())

	members, err := s.users.ListMembers(c.Request.Context(), tc.TenantID())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

type addMemberRequest struct {
	UserID uuid.UUID  `json:"user_id"`
	RoleID *uuid.UUID `json:"role_id"`
}

func (s *Server) addMember(c *gin.Context) {
	tc, _ := tenantctx.FromContext(c.Request.Context())

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == uuid.Nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	membership, err := s.users.AddMember(c.Request.Context(), tc.TenantID(), userdomain.AddMemberRequest{
		UserID: req.UserID,
		RoleID: req.RoleID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

type updateMemberRequest struct {
	RoleID   *uuid.UUID `json:"role_id"`
	IsActive *bool      `json:"is_active"`
}

func (s *Server) updateMember(c *gin.Context) {
	tc, _ := tenantctx.FromContext(c.Request.Context())
	membershipID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	id, _ := identity.FromContext(c.Request.Context())
	membership, err := s.users.UpdateMembership(c.Request.Context(), tc.TenantID(), membershipID, id.UserID, userdomain.UpdateMembershipRequest{
		RoleID:   req.RoleID,
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

func (s *Server) removeMember(c *gin.Context) {
	tc, _ := tenantctx.FromContext(c.Request.Context())
	membershipID, err := uuidParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	id, _ := identity.FromContext(c.Request.Context())
	if err := s.users.RemoveMember(c.Request.Context(), tc.TenantID(), membershipID, id.UserID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
