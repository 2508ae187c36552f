package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/user/domain"
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

func (r *repository) CreateUser(ctx context.Context, user domain.User) error {
	return r.db.WithContext(ctx).Create(&user).Error
}

func (r *repository) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) UpdateUser(ctx context.Context, user domain.User) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"is_active":         user.IsActive,
			"is_staff":          user.IsStaff,
			"is_platform_staff": user.IsPlatformStaff,
			"is_superuser":      user.IsSuperuser,
			"updated_at":        user.UpdatedAt,
		}).Error
}

func (r *repository) CreateMembership(ctx context.Context, m domain.TenantMembership) error {
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *repository) GetMembership(ctx context.Context, tenantID, membershipID uuid.UUID) (*domain.TenantMembership, error) {
	var m domain.TenantMembership
	err := r.db.WithContext(ctx).
		First(&m, "tenant_id = ? AND id = ?", tenantID, membershipID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) MembershipForUser(ctx context.Context, tenantID, userID uuid.UUID) (*domain.TenantMembership, error) {
	var m domain.TenantMembership
	err := r.db.WithContext(ctx).
		First(&m, "tenant_id = ? AND user_id = ?", tenantID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListMemberships(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantMembership, error) {
	var members []domain.TenantMembership
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) ListMembershipsForUser(ctx context.Context, userID uuid.UUID) ([]domain.TenantMembership, error) {
	var members []domain.TenantMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) UpdateMembership(ctx context.Context, m domain.TenantMembership) error {
	return r.db.WithContext(ctx).
		Model(&domain.TenantMembership{}).
		Where("tenant_id = ? AND id = ?", m.TenantID, m.ID).
		Updates(map[string]any{
			"role_id":    m.RoleID,
			"is_active":  m.IsActive,
			"updated_at": m.UpdatedAt,
		}).Error
}

func (r *repository) DeleteMembership(ctx context.Context, tenantID, membershipID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&domain.TenantMembership{}, "tenant_id = ? AND id = ?", tenantID, membershipID).Error
}

func (r *repository) DeleteMembershipsByTenant(ctx context.Context, tenantID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&domain.TenantMembership{}, "tenant_id = ?", tenantID).Error
}
