package guard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/clock"
	"github.com/bookmehq/bookme/internal/identity"
	rbacdomain "github.com/bookmehq/bookme/internal/rbac/domain"
	rbacrepository "github.com/bookmehq/bookme/internal/rbac/repository"
	rbacservice "github.com/bookmehq/bookme/internal/rbac/service"
	tenantdomain "github.com/bookmehq/bookme/internal/tenant/domain"
	userdomain "github.com/bookmehq/bookme/internal/user/domain"
	userrepository "github.com/bookmehq/bookme/internal/user/repository"
	"github.com/bookmehq/bookme/pkg/db"
	"github.com/bookmehq/bookme/pkg/tenantctx"
)

type fixture struct {
	guard    *Guard
	rbac     rbacdomain.Service
	db       *gorm.DB
	tenantID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&rbacdomain.TenantRole{},
		&userdomain.User{},
		&userdomain.TenantMembership{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rbacSvc := rbacservice.NewService(dbConn, rbacrepository.NewRepository(dbConn), clk, zap.NewNop())
	userRepo := userrepository.NewRepository(dbConn)

	tenantID := uuid.New()
	if err := rbacSvc.SeedSystemRoles(context.Background(), dbConn, tenantID); err != nil {
		t.Fatalf("failed to seed roles: %v", err)
	}

	return &fixture{
		guard:    New(rbacSvc, userRepo),
		rbac:     rbacSvc,
		db:       dbConn,
		tenantID: tenantID,
	}
}

func (f *fixture) tenantCtx(status string) *tenantctx.Context {
	return tenantctx.New(f.tenantID, "tenant_glow", status, f.db)
}

func (f *fixture) addMember(t *testing.T, userID uuid.UUID, roleCode string, active bool) {
	t.Helper()

	roles, err := f.rbac.ListRoles(context.Background(), f.tenantID)
	if err != nil {
		t.Fatalf("failed to list roles: %v", err)
	}
	var roleID *uuid.UUID
	for _, r := range roles {
		if r.Code == roleCode {
			id := r.ID
			roleID = &id
			break
		}
	}
	if roleID == nil {
		t.Fatalf("role %s not found", roleCode)
	}

	if err := f.db.Create(&userdomain.TenantMembership{
		ID:       uuid.New(),
		TenantID: f.tenantID,
		UserID:   userID,
		RoleID:   roleID,
		IsActive: active,
	}).Error; err != nil {
		t.Fatalf("failed to create membership: %v", err)
	}
}

func TestUnauthenticatedDenied(t *testing.T) {
	f := newFixture(t)

	if _, err := f.guard.Authorize(context.Background(), nil, f.tenantCtx(tenantdomain.StatusActive), "booking.view"); err != ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestPlatformLevelRequiresStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	regular := &identity.Identity{UserID: uuid.New()}
	if _, err := f.guard.Authorize(ctx, regular, nil, ""); err != ErrNotPlatformStaff {
		t.Fatalf("expected ErrNotPlatformStaff, got %v", err)
	}

	staff := &identity.Identity{UserID: uuid.New(), PlatformStaff: true}
	if _, err := f.guard.Authorize(ctx, staff, nil, ""); err != nil {
		t.Fatalf("platform staff should pass: %v", err)
	}

	super := &identity.Identity{UserID: uuid.New(), Superuser: true}
	if _, err := f.guard.Authorize(ctx, super, nil, ""); err != nil {
		t.Fatalf("superuser should pass: %v", err)
	}
}

func TestMemberAuthorizedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	f.addMember(t, userID, rbacdomain.RoleManager, true)

	id := &identity.Identity{UserID: userID}
	grant, err := f.guard.Authorize(ctx, id, f.tenantCtx(tenantdomain.StatusActive), "booking.create")
	if err != nil {
		t.Fatalf("manager should hold booking.create: %v", err)
	}
	if grant.Membership == nil || grant.Role == nil {
		t.Fatal("grant should carry membership and role")
	}
	if grant.Role.Code != rbacdomain.RoleManager {
		t.Fatalf("expected manager role in grant, got %s", grant.Role.Code)
	}

	if _, err := f.guard.Authorize(ctx, id, f.tenantCtx(tenantdomain.StatusActive), "role.create"); err != ErrInsufficientPermission {
		t.Fatalf("expected ErrInsufficientPermission, got %v", err)
	}
}

func TestNonMemberDenied(t *testing.T) {
	f := newFixture(t)

	id := &identity.Identity{UserID: uuid.New()}
	if _, err := f.guard.Authorize(context.Background(), id, f.tenantCtx(tenantdomain.StatusActive), "booking.view"); err != ErrNotATenantMember {
		t.Fatalf("expected ErrNotATenantMember, got %v", err)
	}
}

func TestInactiveMembershipDenied(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.addMember(t, userID, rbacdomain.RoleOwner, false)

	id := &identity.Identity{UserID: userID}
	if _, err := f.guard.Authorize(context.Background(), id, f.tenantCtx(tenantdomain.StatusActive), "booking.view"); err != ErrNotATenantMember {
		t.Fatalf("expected ErrNotATenantMember for inactive membership, got %v", err)
	}
}

func TestSuspendedTenantDark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	f.addMember(t, userID, rbacdomain.RoleOwner, true)

	id := &identity.Identity{UserID: userID}
	if _, err := f.guard.Authorize(ctx, id, f.tenantCtx(tenantdomain.StatusSuspended), "booking.view"); err != ErrTenantInactive {
		t.Fatalf("expected ErrTenantInactive, got %v", err)
	}

	// Superusers still get in for support work.
	super := &identity.Identity{UserID: uuid.New(), Superuser: true}
	if _, err := f.guard.Authorize(ctx, super, f.tenantCtx(tenantdomain.StatusSuspended), "booking.view"); err != nil {
		t.Fatalf("superuser should bypass tenant status: %v", err)
	}

	// Trial tenants are live.
	if _, err := f.guard.Authorize(ctx, id, f.tenantCtx(tenantdomain.StatusTrial), "booking.view"); err != nil {
		t.Fatalf("trial tenant should be accessible: %v", err)
	}
}

func TestDanglingRoleYieldsRolelessGrant(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.addMember(t, userID, rbacdomain.RoleViewer, true)

	if err := f.db.Delete(&rbacdomain.TenantRole{}, "tenant_id = ? AND code = ?", f.tenantID, rbacdomain.RoleViewer).Error; err != nil {
		t.Fatalf("failed to delete role: %v", err)
	}

	id := &identity.Identity{UserID: userID}
	grant, err := f.guard.Authorize(context.Background(), id, f.tenantCtx(tenantdomain.StatusActive), "")
	if err != nil {
		t.Fatalf("missing role is tolerated for membership-only access: %v", err)
	}
	if grant.Role != nil {
		t.Fatal("expected a role-less grant")
	}
}

func TestRoleLookupFaultPropagates(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.addMember(t, userID, rbacdomain.RoleViewer, true)

	if err := f.db.Migrator().DropTable(&rbacdomain.TenantRole{}); err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	id := &identity.Identity{UserID: userID}
	if _, err := f.guard.Authorize(context.Background(), id, f.tenantCtx(tenantdomain.StatusActive), ""); err == nil {
		t.Fatal("storage fault while loading the role must fail the authorization")
	}
}

func TestMembershipOnlyRequirement(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.addMember(t, userID, rbacdomain.RoleViewer, true)

	id := &identity.Identity{UserID: userID}
	if _, err := f.guard.Authorize(context.Background(), id, f.tenantCtx(tenantdomain.StatusActive), ""); err != nil {
		t.Fatalf("membership alone satisfies an empty requirement: %v", err)
	}
}
