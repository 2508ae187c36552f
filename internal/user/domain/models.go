package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:ux_users_email" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:128" json:"first_name"`
	LastName     string    `gorm:"size:128" json:"last_name"`

	// TenantID is the home tenant for tenant-created accounts. Platform
	// accounts leave it nil.
	TenantID *uuid.UUID `gorm:"type:uuid;index" json:"tenant_id,omitempty"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`
	// IsStaff is derived: true while the user holds an active owner or
	// admin membership anywhere. Never set directly.
	IsStaff         bool `gorm:"not null;default:false" json:"is_staff"`
	IsPlatformStaff bool `gorm:"not null;default:false" json:"is_platform_staff"`
	IsSuperuser     bool `gorm:"not null;default:false" json:"is_superuser"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// TenantMembership links a user to a tenant with at most one role. The
// inline Permissions list predates roles and only applies when RoleID is
// nil.
type TenantMembership struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_memberships_tenant_user,priority:1" json:"tenant_id"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_memberships_tenant_user,priority:2" json:"user_id"`
	RoleID   *uuid.UUID `gorm:"type:uuid;index" json:"role_id,omitempty"`

	Permissions datatypes.JSONSlice[string] `json:"permissions,omitempty"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TenantMembership) TableName() string {
	return "tenant_memberships"
}
