package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRoleNotFound        = errors.New("role_not_found")
	ErrDuplicateRoleCode   = errors.New("duplicate_role_code")
	ErrSystemRoleProtected = errors.New("system_role_protected")
	ErrInvalidRoleCode     = errors.New("invalid_role_code")
	ErrInvalidPermission   = errors.New("invalid_permission")
	ErrRoleInUse           = errors.New("role_in_use")
)

// Subject is the authenticated principal a permission check runs for.
type Subject struct {
	UserID    uuid.UUID
	Superuser bool
}

// Seeder creates and removes a tenant's role set inside the caller's
// transaction. Split out so the tenant registry can depend on it
// without the full service surface.
type Seeder interface {
	SeedSystemRoles(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) error
	// PurgeTenantRoles removes every role of the tenant. Memberships
	// referencing them must already be gone.
	PurgeTenantRoles(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) error
}

type Service interface {
	Seeder

	// EffectivePermissions resolves the subject's permission set within
	// the tenant. Superusers hold every registered permission. Members
	// without a role fall back to the deprecated per-membership
	// permission list.
	EffectivePermissions(ctx context.Context, tenantID uuid.UUID, subject Subject) ([]string, error)
	HasPermission(ctx context.Context, tenantID uuid.UUID, subject Subject, code string) (bool, error)
	// HasAnyPermissionInNamespace reports whether the subject holds at
	// least one permission under the namespace prefix.
	HasAnyPermissionInNamespace(ctx context.Context, tenantID uuid.UUID, subject Subject, namespace string) (bool, error)

	ListRoles(ctx context.Context, tenantID uuid.UUID) ([]TenantRole, error)
	GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (*TenantRole, error)
	CreateRole(ctx context.Context, tenantID uuid.UUID, req CreateRoleRequest) (*TenantRole, error)
	UpdateRole(ctx context.Context, tenantID, roleID uuid.UUID, req UpdateRoleRequest) (*TenantRole, error)
	DeactivateRole(ctx context.Context, tenantID, roleID uuid.UUID) error
	DeleteRole(ctx context.Context, tenantID, roleID uuid.UUID) error

	// ResyncSystemRoles reconciles a tenant's system roles against the
	// current definitions. Idempotent; with dryRun it only reports.
	ResyncSystemRoles(ctx context.Context, tenantID uuid.UUID, dryRun bool) (*ResyncReport, error)
}

type CreateRoleRequest struct {
	Code        string
	Name        string
	Description string
	Permissions []string
}

type UpdateRoleRequest struct {
	Name        *string
	Description *string
	Permissions *[]string
}

type ResyncReport struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Created  []string  `json:"created"`
	Updated  []string  `json:"updated"`
	DryRun   bool      `json:"dry_run"`
}

// MembershipGrant is the slice of a membership the permission engine
// needs: the assigned role and the deprecated inline permission list.
type MembershipGrant struct {
	RoleID            *uuid.UUID
	LegacyPermissions []string
	IsActive          bool
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateRole(ctx context.Context, role TenantRole) error
	GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (*TenantRole, error)
	RoleByCode(ctx context.Context, tenantID uuid.UUID, code string) (*TenantRole, error)
	ListRoles(ctx context.Context, tenantID uuid.UUID) ([]TenantRole, error)
	UpdateRole(ctx context.Context, role TenantRole) error
	DeleteRole(ctx context.Context, tenantID, roleID uuid.UUID) error
	DeleteRolesByTenant(ctx context.Context, tenantID uuid.UUID) error

	MembershipForUser(ctx context.Context, tenantID, userID uuid.UUID) (*MembershipGrant, error)
	CountMembershipsByRole(ctx context.Context, roleID uuid.UUID) (int64, error)
}
