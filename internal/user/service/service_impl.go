package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/clock"
	rbacdomain "github.com/bookmehq/bookme/internal/rbac/domain"
	"github.com/bookmehq/bookme/internal/user/domain"
	"github.com/bookmehq/bookme/pkg/db"
)

const minPasswordLength = 8

type service struct {
	db    *gorm.DB
	repo  domain.Repository
	roles rbacdomain.Service
	clock clock.Clock
	log   *zap.Logger
}

func NewService(gdb *gorm.DB, repo domain.Repository, roles rbacdomain.Service, clk clock.Clock, log *zap.Logger) domain.Service {
	return &service{
		db:    gdb,
		repo:  repo,
		roles: roles,
		clock: clk,
		log:   log.Named("user.service"),
	}
}

func (s *service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		TenantID:     req.TenantID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}
	return &user, nil
}

func (s *service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.repo.GetUser(ctx, userID)
}

func (s *service) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *service) SetPrivilegeFlags(ctx context.Context, actorID, userID uuid.UUID, req domain.PrivilegeFlagsRequest) (*domain.User, error) {
	actor, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperuser {
		return nil, domain.ErrNotSuperuser
	}
	if actorID == userID {
		return nil, domain.ErrSelfEscalation
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.IsPlatformStaff != nil {
		user.IsPlatformStaff = *req.IsPlatformStaff
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateUser(ctx, *user); err != nil {
		return nil, err
	}

	s.log.Info("privilege flags changed",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("is_platform_staff", user.IsPlatformStaff),
		zap.Bool("is_superuser", user.IsSuperuser),
	)
	return user, nil
}

func (s *service) AddMember(ctx context.Context, tenantID uuid.UUID, req domain.AddMemberRequest) (*domain.TenantMembership, error) {
	if _, err := s.repo.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}
	// Every membership carries an explicit role; role-less memberships are
	// a legacy read path only.
	if req.RoleID == nil {
		return nil, domain.ErrRoleRequired
	}
	if err := s.validateRole(ctx, tenantID, req.RoleID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	membership := domain.TenantMembership{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    req.UserID,
		RoleID:    req.RoleID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateMembership(ctx, membership); err != nil {
			return err
		}
		return s.recomputeStaffFlag(ctx, repo, req.UserID)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateMembership
		}
		return nil, err
	}
	return &membership, nil
}

func (s *service) UpdateMembership(ctx context.Context, tenantID, membershipID, actorID uuid.UUID, req domain.UpdateMembershipRequest) (*domain.TenantMembership, error) {
	membership, err := s.repo.GetMembership(ctx, tenantID, membershipID)
	if err != nil {
		return nil, err
	}
	if membership.UserID == actorID {
		return nil, domain.ErrSelfEscalation
	}

	if req.RoleID != nil {
		if err := s.validateRole(ctx, tenantID, req.RoleID); err != nil {
			return nil, err
		}
		membership.RoleID = req.RoleID
	}
	if req.IsActive != nil {
		membership.IsActive = *req.IsActive
	}
	membership.UpdatedAt = s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateMembership(ctx, *membership); err != nil {
			return err
		}
		return s.recomputeStaffFlag(ctx, repo, membership.UserID)
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *service) RemoveMember(ctx context.Context, tenantID, membershipID, actorID uuid.UUID) error {
	membership, err := s.repo.GetMembership(ctx, tenantID, membershipID)
	if err != nil {
		return err
	}
	if membership.UserID == actorID {
		return domain.ErrSelfEscalation
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteMembership(ctx, tenantID, membershipID); err != nil {
			return err
		}
		return s.recomputeStaffFlag(ctx, repo, membership.UserID)
	})
}

// PurgeTenantMemberships removes every membership of the tenant and
// recomputes the staff flag of each affected user, so nobody keeps
// staff access through a dead tenant.
func (s *service) PurgeTenantMemberships(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) error {
	repo := s.repo.WithTx(tx)

	memberships, err := repo.ListMemberships(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := repo.DeleteMembershipsByTenant(ctx, tenantID); err != nil {
		return err
	}
	for _, m := range memberships {
		if err := s.recomputeStaffFlag(ctx, repo, m.UserID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantMembership, error) {
	return s.repo.ListMemberships(ctx, tenantID)
}

func (s *service) GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*domain.TenantMembership, error) {
	return s.repo.MembershipForUser(ctx, tenantID, userID)
}

// validateRole rejects roles that do not belong to the tenant. Cross-tenant
// role assignment would leak one tenant's permission bundles into another.
func (s *service) validateRole(ctx context.Context, tenantID uuid.UUID, roleID *uuid.UUID) error {
	if roleID == nil {
		return nil
	}
	if _, err := s.roles.GetRole(ctx, tenantID, *roleID); err != nil {
		if err == rbacdomain.ErrRoleNotFound {
			return domain.ErrRoleWrongTenant
		}
		return err
	}
	return nil
}

// recomputeStaffFlag keeps users.is_staff in sync with membership state:
// true while the user holds an active owner or admin membership in any
// tenant.
func (s *service) recomputeStaffFlag(ctx context.Context, repo domain.Repository, userID uuid.UUID) error {
	memberships, err := repo.ListMembershipsForUser(ctx, userID)
	if err != nil {
		return err
	}

	staff := false
	for _, m := range memberships {
		if !m.IsActive || m.RoleID == nil {
			continue
		}
		role, err := s.roles.GetRole(ctx, m.TenantID, *m.RoleID)
		if err != nil {
			if err == rbacdomain.ErrRoleNotFound {
				continue
			}
			return err
		}
		if role.Code == rbacdomain.RoleOwner || role.Code == rbacdomain.RoleAdmin {
			staff = true
			break
		}
	}

	user, err := repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsStaff == staff {
		return nil
	}

	user.IsStaff = staff
	user.UpdatedAt = s.clock.Now()
	return repo.UpdateUser(ctx, *user)
}
