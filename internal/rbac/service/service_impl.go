package service

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/clock"
	"github.com/bookmehq/bookme/internal/rbac/domain"
	"github.com/bookmehq/bookme/pkg/db"
)

var roleCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

type service struct {
	db    *gorm.DB
	repo  domain.Repository
	clock clock.Clock
	log   *zap.Logger
}

func NewService(gdb *gorm.DB, repo domain.Repository, clk clock.Clock, log *zap.Logger) domain.Service {
	return &service{
		db:    gdb,
		repo:  repo,
		clock: clk,
		log:   log.Named("rbac.service"),
	}
}

func (s *service) SeedSystemRoles(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	now := s.clock.Now()
	for _, def := range domain.SystemRoles() {
		role := domain.TenantRole{
			ID:          uuid.New(),
			TenantID:    tenantID,
			Code:        def.Code,
			Name:        def.Name,
			Description: def.Description,
			Kind:        domain.KindSystem,
			Permissions: datatypes.NewJSONSlice(def.Permissions),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.CreateRole(ctx, role); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) PurgeTenantRoles(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) error {
	return s.repo.WithTx(tx).DeleteRolesByTenant(ctx, tenantID)
}

func (s *service) EffectivePermissions(ctx context.Context, tenantID uuid.UUID, subject domain.Subject) ([]string, error) {
	if subject.Superuser {
		return domain.AllPermissions(), nil
	}

	cache := cacheFrom(ctx)
	if cache != nil {
		if perms, ok := cache.get(tenantID, subject.UserID); ok {
			return perms, nil
		}
	}

	perms, err := s.resolvePermissions(ctx, tenantID, subject.UserID)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		cache.put(tenantID, subject.UserID, perms)
	}
	return perms, nil
}

func (s *service) resolvePermissions(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error) {
	grant, err := s.repo.MembershipForUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if grant == nil || !grant.IsActive {
		return nil, nil
	}

	if grant.RoleID != nil {
		role, err := s.repo.GetRole(ctx, tenantID, *grant.RoleID)
		if err != nil {
			if err == domain.ErrRoleNotFound {
				return nil, nil
			}
			return nil, err
		}
		if !role.IsActive {
			return nil, nil
		}
		return role.Permissions, nil
	}

	// Deprecated path: memberships created before roles existed carry an
	// inline permission list.
	if len(grant.LegacyPermissions) > 0 {
		s.log.Debug("resolved permissions from legacy membership list",
			zap.String("tenant_id", tenantID.String()),
			zap.String("user_id", userID.String()),
		)
		return grant.LegacyPermissions, nil
	}
	return nil, nil
}

func (s *service) HasPermission(ctx context.Context, tenantID uuid.UUID, subject domain.Subject, code string) (bool, error) {
	perms, err := s.EffectivePermissions(ctx, tenantID, subject)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) HasAnyPermissionInNamespace(ctx context.Context, tenantID uuid.UUID, subject domain.Subject, namespace string) (bool, error) {
	perms, err := s.EffectivePermissions(ctx, tenantID, subject)
	if err != nil {
		return false, err
	}
	prefix := namespace + "."
	for _, p := range perms {
		if strings.HasPrefix(p, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantRole, error) {
	return s.repo.ListRoles(ctx, tenantID)
}

func (s *service) GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (*domain.TenantRole, error) {
	return s.repo.GetRole(ctx, tenantID, roleID)
}

func (s *service) CreateRole(ctx context.Context, tenantID uuid.UUID, req domain.CreateRoleRequest) (*domain.TenantRole, error) {
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if !roleCodePattern.MatchString(code) {
		return nil, domain.ErrInvalidRoleCode
	}
	if err := validatePermissions(req.Permissions); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = code
	}

	now := s.clock.Now()
	role := domain.TenantRole{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Kind:        domain.KindCustom,
		Permissions: datatypes.NewJSONSlice(normalizePermissions(req.Permissions)),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateRole(ctx, role); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateRoleCode
		}
		return nil, err
	}
	return &role, nil
}

func (s *service) UpdateRole(ctx context.Context, tenantID, roleID uuid.UUID, req domain.UpdateRoleRequest) (*domain.TenantRole, error) {
	role, err := s.repo.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsSystem() {
		return nil, domain.ErrSystemRoleProtected
	}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			role.Name = name
		}
	}
	if req.Description != nil {
		role.Description = strings.TrimSpace(*req.Description)
	}
	if req.Permissions != nil {
		if err := validatePermissions(*req.Permissions); err != nil {
			return nil, err
		}
		role.Permissions = datatypes.NewJSONSlice(normalizePermissions(*req.Permissions))
	}
	role.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateRole(ctx, *role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *service) DeactivateRole(ctx context.Context, tenantID, roleID uuid.UUID) error {
	role, err := s.repo.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem() {
		return domain.ErrSystemRoleProtected
	}

	role.IsActive = false
	role.UpdatedAt = s.clock.Now()
	return s.repo.UpdateRole(ctx, *role)
}

func (s *service) DeleteRole(ctx context.Context, tenantID, roleID uuid.UUID) error {
	role, err := s.repo.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem() {
		return domain.ErrSystemRoleProtected
	}

	count, err := s.repo.CountMembershipsByRole(ctx, roleID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrRoleInUse
	}

	return s.repo.DeleteRole(ctx, tenantID, roleID)
}

func (s *service) ResyncSystemRoles(ctx context.Context, tenantID uuid.UUID, dryRun bool) (*domain.ResyncReport, error) {
	report := &domain.ResyncReport{TenantID: tenantID, DryRun: dryRun}

	apply := func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.clock.Now()

		for _, def := range domain.SystemRoles() {
			existing, err := repo.RoleByCode(ctx, tenantID, def.Code)
			if err != nil {
				return err
			}

			if existing == nil {
				report.Created = append(report.Created, def.Code)
				if dryRun {
					continue
				}
				err := repo.CreateRole(ctx, domain.TenantRole{
					ID:          uuid.New(),
					TenantID:    tenantID,
					Code:        def.Code,
					Name:        def.Name,
					Description: def.Description,
					Kind:        domain.KindSystem,
					Permissions: datatypes.NewJSONSlice(def.Permissions),
					IsActive:    true,
					CreatedAt:   now,
					UpdatedAt:   now,
				})
				if err != nil {
					return err
				}
				continue
			}

			if systemRoleCurrent(existing, def) {
				continue
			}
			report.Updated = append(report.Updated, def.Code)
			if dryRun {
				continue
			}

			existing.Name = def.Name
			existing.Description = def.Description
			existing.Kind = domain.KindSystem
			existing.Permissions = datatypes.NewJSONSlice(def.Permissions)
			existing.IsActive = true
			existing.UpdatedAt = now
			if err := repo.UpdateRole(ctx, *existing); err != nil {
				return err
			}
		}
		return nil
	}

	if dryRun {
		if err := apply(s.db); err != nil {
			return nil, err
		}
		return report, nil
	}

	if err := s.db.WithContext(ctx).Transaction(apply); err != nil {
		return nil, err
	}

	if len(report.Created) > 0 || len(report.Updated) > 0 {
		s.log.Info("system roles resynced",
			zap.String("tenant_id", tenantID.String()),
			zap.Strings("created", report.Created),
			zap.Strings("updated", report.Updated),
		)
	}
	return report, nil
}

func systemRoleCurrent(role *domain.TenantRole, def domain.SystemRoleDefinition) bool {
	if role.Kind != domain.KindSystem || !role.IsActive {
		return false
	}
	if role.Name != def.Name || role.Description != def.Description {
		return false
	}
	return equalPermissionSets(role.Permissions, def.Permissions)
}

func equalPermissionSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func validatePermissions(codes []string) error {
	for _, code := range codes {
		if !domain.ValidPermission(strings.TrimSpace(code)) {
			return domain.ErrInvalidPermission
		}
	}
	return nil
}

func normalizePermissions(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
