// Package domain contains persistence models for the tenant registry.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Tenant statuses.
const (
	StatusTrial     = "trial"
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusCancelled = "cancelled"
)

// Business types, used only to seed the default enabled-module set.
const (
	BusinessSalon      = "salon"
	BusinessClinic     = "clinic"
	BusinessGym        = "gym"
	BusinessSpa        = "spa"
	BusinessStudio     = "studio"
	BusinessRestaurant = "restaurant"
	BusinessCustom     = "custom"
)

// Tenant represents a single business. Each tenant owns an isolated storage
// partition; PartitionID is assigned once at creation and never mutated.
type Tenant struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string            `gorm:"type:text;not null" json:"name"`
	PartitionID     string            `gorm:"type:text;not null;uniqueIndex:ux_tenants_partition" json:"partition_id"`
	Status          string            `gorm:"type:text;not null;default:trial;index" json:"status"`
	BusinessType    string            `gorm:"type:text;not null;default:custom" json:"business_type"`
	PrimaryHostname string            `gorm:"type:text;not null;uniqueIndex:ux_tenants_hostname" json:"primary_hostname"`
	ContactEmail    string            `gorm:"type:text;not null" json:"contact_email"`
	ContactPhone    string            `gorm:"type:text" json:"contact_phone"`

	SubscriptionTier    string `gorm:"type:text;not null;default:free" json:"subscription_tier"`
	MaxStaff            int    `gorm:"not null;default:5" json:"max_staff"`
	MaxServices         int    `gorm:"not null;default:10" json:"max_services"`
	MaxBookingsPerMonth int    `gorm:"not null;default:100" json:"max_bookings_per_month"`

	EnabledModules datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"enabled_modules"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }

func (t Tenant) IsActive() bool {
	return t.Status == StatusActive || t.Status == StatusTrial
}

// Domain maps a hostname to exactly one tenant. At most one domain per
// tenant is primary.
type Domain struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Hostname  string    `gorm:"type:text;not null;uniqueIndex:ux_tenant_domains_hostname" json:"hostname"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Domain) TableName() string { return "tenant_domains" }

// Lifecycle event kinds.
const (
	EventCreated     = "created"
	EventActivated   = "activated"
	EventSuspended   = "suspended"
	EventReactivated = "reactivated"
	EventUpgraded    = "upgraded"
	EventDowngraded  = "downgraded"
	EventCancelled   = "cancelled"
	EventDeleted     = "deleted"

	EventModulesUpdated = "modules_updated"
)

// LifecycleEvent is the append-only audit record for tenant lifecycle
// transitions. Rows are never updated or deleted. TenantID is nullable: the
// terminal deleted event survives the tenant row, so identifying fields are
// denormalized into Metadata.
type LifecycleEvent struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID    *uuid.UUID        `gorm:"type:uuid;index" json:"tenant_id"`
	Event       string            `gorm:"type:text;not null;index" json:"event"`
	PerformedBy string            `gorm:"type:text;not null" json:"performed_by"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	OccurredAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"occurred_at"`
}

func (LifecycleEvent) TableName() string { return "tenant_lifecycle_events" }
