package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/tenant/domain"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateTenant(ctx context.Context, tenant domain.Tenant) error {
	return r.db.WithContext(ctx).Create(&tenant).Error
}

func (r *repository) GetTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	var tenants []domain.Tenant
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *repository) UpdateTenant(ctx context.Context, tenant domain.Tenant) error {
	return r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", tenant.ID).
		Updates(map[string]any{
			"status":            tenant.Status,
			"subscription_tier": tenant.SubscriptionTier,
			"enabled_modules":   tenant.EnabledModules,
			"metadata":          tenant.Metadata,
			"updated_at":        tenant.UpdatedAt,
		}).Error
}

func (r *repository) DeleteTenant(ctx context.Context, tenantID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Tenant{}, "id = ?", tenantID).Error
}

func (r *repository) CreateDomain(ctx context.Context, d domain.Domain) error {
	return r.db.WithContext(ctx).Create(&d).Error
}

func (r *repository) DomainByHostname(ctx context.Context, hostname string) (*domain.Domain, error) {
	var d domain.Domain
	err := r.db.WithContext(ctx).First(&d, "hostname = ?", strings.ToLower(hostname)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *repository) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	var domains []domain.Domain
	if err := r.db.WithContext(ctx).Find(&domains).Error; err != nil {
		return nil, err
	}
	return domains, nil
}

func (r *repository) DeleteDomainsByTenant(ctx context.Context, tenantID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Domain{}, "tenant_id = ?", tenantID).Error
}

func (r *repository) AppendEvent(ctx context.Context, event domain.LifecycleEvent) error {
	return r.db.WithContext(ctx).Create(&event).Error
}

func (r *repository) ListEvents(ctx context.Context, tenantID uuid.UUID, afterID int64, limit int) ([]domain.LifecycleEvent, error) {
	q := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id DESC").
		Limit(limit)
	if afterID > 0 {
		q = q.Where("id < ?", afterID)
	}

	var events []domain.LifecycleEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
