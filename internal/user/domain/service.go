package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user_not_found")
	ErrDuplicateEmail      = errors.New("duplicate_email")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrWeakPassword        = errors.New("weak_password")
	ErrMembershipNotFound  = errors.New("membership_not_found")
	ErrDuplicateMembership = errors.New("duplicate_membership")
	ErrRoleRequired        = errors.New("role_required")
	ErrRoleWrongTenant     = errors.New("role_wrong_tenant")
	ErrSelfEscalation      = errors.New("self_escalation_blocked")
	ErrNotSuperuser        = errors.New("not_superuser")
)

// Purger removes a tenant's memberships inside the caller's transaction,
// keeping derived user flags consistent. Split out so the tenant
// registry can depend on it without the full service surface.
type Purger interface {
	PurgeTenantMemberships(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) error
}

type Service interface {
	Purger

	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// SetPrivilegeFlags changes platform-staff and superuser flags. Only
	// a superuser may call it, and never on their own account.
	SetPrivilegeFlags(ctx context.Context, actorID, userID uuid.UUID, req PrivilegeFlagsRequest) (*User, error)

	AddMember(ctx context.Context, tenantID uuid.UUID, req AddMemberRequest) (*TenantMembership, error)
	// UpdateMembership changes role or active flag. Actors cannot change
	// their own membership.
	UpdateMembership(ctx context.Context, tenantID, membershipID, actorID uuid.UUID, req UpdateMembershipRequest) (*TenantMembership, error)
	RemoveMember(ctx context.Context, tenantID, membershipID, actorID uuid.UUID) error
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]TenantMembership, error)
	GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*TenantMembership, error)
}

type CreateUserRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	TenantID  *uuid.UUID
}

type PrivilegeFlagsRequest struct {
	IsPlatformStaff *bool
	IsSuperuser     *bool
	IsActive        *bool
}

type AddMemberRequest struct {
	UserID uuid.UUID
	RoleID *uuid.UUID
}

type UpdateMembershipRequest struct {
	RoleID   *uuid.UUID
	IsActive *bool
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user User) error

	CreateMembership(ctx context.Context, m TenantMembership) error
	GetMembership(ctx context.Context, tenantID, membershipID uuid.UUID) (*TenantMembership, error)
	MembershipForUser(ctx context.Context, tenantID, userID uuid.UUID) (*TenantMembership, error)
	ListMemberships(ctx context.Context, tenantID uuid.UUID) ([]TenantMembership, error)
	ListMembershipsForUser(ctx context.Context, userID uuid.UUID) ([]TenantMembership, error)
	UpdateMembership(ctx context.Context, m TenantMembership) error
	DeleteMembership(ctx context.Context, tenantID, membershipID uuid.UUID) error
	DeleteMembershipsByTenant(ctx context.Context, tenantID uuid.UUID) error
}
