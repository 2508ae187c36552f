package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/rbac/domain"
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

func (r *repository) CreateRole(ctx context.Context, role domain.TenantRole) error {
	return r.db.WithContext(ctx).Create(&role).Error
}

func (r *repository) GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (*domain.TenantRole, error) {
	var role domain.TenantRole
	err := r.db.WithContext(ctx).
		First(&role, "tenant_id = ? AND id = ?", tenantID, roleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *repository) RoleByCode(ctx context.Context, tenantID uuid.UUID, code string) (*domain.TenantRole, error) {
	var role domain.TenantRole
	err := r.db.WithContext(ctx).
		First(&role, "tenant_id = ? AND code = ?", tenantID, code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *repository) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantRole, error) {
	var roles []domain.TenantRole
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("kind, code").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *repository) UpdateRole(ctx context.Context, role domain.TenantRole) error {
	return r.db.WithContext(ctx).
		Model(&domain.TenantRole{}).
		Where("tenant_id = ? AND id = ?", role.TenantID, role.ID).
		Updates(map[string]any{
			"name":        role.Name,
			"description": role.Description,
			"permissions": role.Permissions,
			"is_active":   role.IsActive,
			"updated_at":  role.UpdatedAt,
		}).Error
}

func (r *repository) DeleteRole(ctx context.Context, tenantID, roleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&domain.TenantRole{}, "tenant_id = ? AND id = ?", tenantID, roleID).Error
}

func (r *repository) DeleteRolesByTenant(ctx context.Context, tenantID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&domain.TenantRole{}, "tenant_id = ?", tenantID).Error
}

// membershipRow mirrors the columns of tenant_memberships the permission
// engine needs. The full model lives with the user feature; reading it
// through a projection keeps the packages decoupled.
type membershipRow struct {
	RoleID      *uuid.UUID                  `gorm:"column:role_id"`
	Permissions datatypes.JSONSlice[string] `gorm:"column:permissions"`
	IsActive    bool                        `gorm:"column:is_active"`
}

func (r *repository) MembershipForUser(ctx context.Context, tenantID, userID uuid.UUID) (*domain.MembershipGrant, error) {
	var row membershipRow
	err := r.db.WithContext(ctx).
		Table("tenant_memberships").
		Select("role_id", "permissions", "is_active").
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.MembershipGrant{
		RoleID:            row.RoleID,
		LegacyPermissions: row.Permissions,
		IsActive:          row.IsActive,
	}, nil
}

func (r *repository) CountMembershipsByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("tenant_memberships").
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, err
}
