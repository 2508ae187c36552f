package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTenant(ctx context.Context, tenant Tenant) error
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
	UpdateTenant(ctx context.Context, tenant Tenant) error
	DeleteTenant(ctx context.Context, tenantID uuid.UUID) error

	CreateDomain(ctx context.Context, domain Domain) error
	DomainByHostname(ctx context.Context, hostname string) (*Domain, error)
	ListDomains(ctx context.Context) ([]Domain, error)
	DeleteDomainsByTenant(ctx context.Context, tenantID uuid.UUID) error

	AppendEvent(ctx context.Context, event LifecycleEvent) error
	ListEvents(ctx context.Context, tenantID uuid.UUID, afterID int64, limit int) ([]LifecycleEvent, error)
}
