package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookmehq/bookme/internal/guard"
	"github.com/bookmehq/bookme/internal/hostcheck"
	"github.com/bookmehq/bookme/internal/identity"
	rbacdomain "github.com/bookmehq/bookme/internal/rbac/domain"
	tenantdomain "github.com/bookmehq/bookme/internal/tenant/domain"
	userdomain "github.com/bookmehq/bookme/internal/user/domain"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrTenantRequired = errors.New("tenant_required")
	ErrRateLimited    = errors.New("rate_limited")
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}

	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	case errors.Is(err, hostcheck.ErrDisallowedHost):
		return http.StatusBadRequest, errorPayload{
			Type:    "disallowed_host",
			Message: "host not allowed",
		}

	case errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, identity.ErrInactiveUser),
		errors.Is(err, guard.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}

	case errors.Is(err, guard.ErrTenantInactive):
		return http.StatusForbidden, errorPayload{
			Type:    "tenant_inactive",
			Message: "tenant is not active",
		}

	case errors.Is(err, guard.ErrNotPlatformStaff),
		errors.Is(err, guard.ErrNotATenantMember),
		errors.Is(err, guard.ErrInsufficientPermission),
		errors.Is(err, rbacdomain.ErrSystemRoleProtected),
		errors.Is(err, userdomain.ErrSelfEscalation),
		errors.Is(err, userdomain.ErrNotSuperuser):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}

	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrTenantRequired),
		errors.Is(err, tenantdomain.ErrInvalidName),
		errors.Is(err, tenantdomain.ErrInvalidEmail),
		errors.Is(err, tenantdomain.ErrInvalidSubdomain),
		errors.Is(err, tenantdomain.ErrInvalidStatus),
		errors.Is(err, tenantdomain.ErrInvalidTier),
		errors.Is(err, tenantdomain.ErrReservedSubdomain),
		errors.Is(err, tenantdomain.ErrUnknownModule),
		errors.Is(err, tenantdomain.ErrRequiredModule),
		errors.Is(err, rbacdomain.ErrInvalidRoleCode),
		errors.Is(err, rbacdomain.ErrInvalidPermission),
		errors.Is(err, userdomain.ErrInvalidEmail),
		errors.Is(err, userdomain.ErrWeakPassword),
		errors.Is(err, userdomain.ErrRoleRequired),
		errors.Is(err, userdomain.ErrRoleWrongTenant):
		return true
	}
	return false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, rbacdomain.ErrRoleNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, userdomain.ErrMembershipNotFound):
		return true
	}
	return false
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, tenantdomain.ErrDuplicateHostname),
		errors.Is(err, tenantdomain.ErrInvalidTransition),
		errors.Is(err, rbacdomain.ErrDuplicateRoleCode),
		errors.Is(err, rbacdomain.ErrRoleInUse),
		errors.Is(err, userdomain.ErrDuplicateEmail),
		errors.Is(err, userdomain.ErrDuplicateMembership):
		return true
	}
	return false
}
