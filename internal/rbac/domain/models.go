package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	KindSystem = "system"
	KindCustom = "custom"
)

// System role codes.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleViewer  = "viewer"
)

// TenantRole is a named bundle of permission codes scoped to one tenant.
// System roles are seeded at registration and cannot be renamed, mutated
// or removed through the write operations.
type TenantRole struct {
	ID          uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:ux_tenant_roles_code,priority:1" json:"tenant_id"`
	Code        string                     `gorm:"size:64;not null;uniqueIndex:ux_tenant_roles_code,priority:2" json:"code"`
	Name        string                     `gorm:"size:128;not null" json:"name"`
	Description string                     `gorm:"size:512" json:"description"`
	Kind        string                     `gorm:"size:16;not null;default:custom" json:"kind"`
	Permissions datatypes.JSONSlice[string] `gorm:"not null" json:"permissions"`
	IsActive    bool                       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

func (TenantRole) TableName() string {
	return "tenant_roles"
}

func (r *TenantRole) IsSystem() bool {
	return r.Kind == KindSystem
}
