package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bookmehq/bookme/pkg/db/pagination"
)

// ReservedSubdomains can never be claimed by a tenant.
var ReservedSubdomains = []string{"www", "api", "admin", "app", "mail", "ftp", "localhost", "staging"}

type Service interface {
	// Register creates the tenant, its primary domain, the five system
	// roles and the created lifecycle event as one atomic unit.
	Register(ctx context.Context, req RegistrationRequest) (*Tenant, error)
	Get(ctx context.Context, tenantID uuid.UUID) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	// UpdateStatus drives the lifecycle state machine and appends the
	// matching lifecycle event. Actor is a user id or "system".
	UpdateStatus(ctx context.Context, tenantID uuid.UUID, newStatus, actor string) error
	// UpdateTier changes the subscription tier, recording an upgraded or
	// downgraded event.
	UpdateTier(ctx context.Context, tenantID uuid.UUID, newTier, actor string) error
	// UpdateModules replaces the enabled-module set. Required modules
	// stay enabled regardless of the requested set.
	UpdateModules(ctx context.Context, tenantID uuid.UUID, modules map[string]any, actor string) error
	// Delete appends the terminal deleted event with a denormalized
	// snapshot before removing the tenant row.
	Delete(ctx context.Context, tenantID uuid.UUID, actor string) error
	ListEvents(ctx context.Context, tenantID uuid.UUID, page pagination.Pagination) (*EventPage, error)
}

type RegistrationRequest struct {
	Name         string
	Subdomain    string // bare subdomain or full hostname
	ContactEmail string
	ContactPhone string
	BusinessType string
	Actor        string
}

type EventPage struct {
	pagination.PageInfo
	Events []LifecycleEvent `json:"events"`
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrInvalidSubdomain  = errors.New("invalid_subdomain")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTier       = errors.New("invalid_tier")
	ErrReservedSubdomain = errors.New("reserved_subdomain")
	ErrDuplicateHostname = errors.New("duplicate_hostname")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrTenantNotFound    = errors.New("tenant_not_found")
	ErrUnknownModule     = errors.New("unknown_module")
	ErrRequiredModule    = errors.New("required_module_disabled")
)

// statusTransitions is the tenant lifecycle state machine. Cancelled is
// terminal; the only way out is deletion.
var statusTransitions = map[string][]string{
	StatusTrial:     {StatusActive, StatusCancelled},
	StatusActive:    {StatusSuspended, StatusCancelled},
	StatusSuspended: {StatusActive, StatusCancelled},
	StatusCancelled: {},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to string) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionEvent maps a permitted transition to its lifecycle event kind.
func TransitionEvent(from, to string) string {
	switch {
	case to == StatusCancelled:
		return EventCancelled
	case to == StatusSuspended:
		return EventSuspended
	case from == StatusSuspended && to == StatusActive:
		return EventReactivated
	case to == StatusActive:
		return EventActivated
	default:
		return ""
	}
}
