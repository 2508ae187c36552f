package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/clock"
	rbacdomain "github.com/bookmehq/bookme/internal/rbac/domain"
	rbacrepository "github.com/bookmehq/bookme/internal/rbac/repository"
	rbacservice "github.com/bookmehq/bookme/internal/rbac/service"
	"github.com/bookmehq/bookme/internal/tenant/domain"
	"github.com/bookmehq/bookme/internal/tenant/repository"
	userdomain "github.com/bookmehq/bookme/internal/user/domain"
	userrepository "github.com/bookmehq/bookme/internal/user/repository"
	userservice "github.com/bookmehq/bookme/internal/user/service"
	"github.com/bookmehq/bookme/pkg/db"
	"github.com/bookmehq/bookme/pkg/db/pagination"
	"github.com/bookmehq/bookme/pkg/partition"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&domain.Tenant{},
		&domain.Domain{},
		&domain.LifecycleEvent{},
		&rbacdomain.TenantRole{},
		&userdomain.User{},
		&userdomain.TenantMembership{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rbacSvc := rbacservice.NewService(dbConn, rbacrepository.NewRepository(dbConn), clk, zap.NewNop())
	userSvc := userservice.NewService(dbConn, userrepository.NewRepository(dbConn), rbacSvc, clk, zap.NewNop())

	svc := NewService(Params{
		DB:         dbConn,
		Repo:       repository.NewRepository(dbConn),
		Seeder:     rbacSvc,
		Members:    userSvc,
		Partitions: partition.NewNoopManager(),
		Clock:      clk,
		GenID:      node,
		BaseDomain: "bookme.app",
		Log:        zap.NewNop(),
	})
	return svc, dbConn
}

func registerTenant(t *testing.T, svc domain.Service, subdomain string) *domain.Tenant {
	t.Helper()

	tenant, err := svc.Register(context.Background(), domain.RegistrationRequest{
		Name:         "Glow Salon",
		Subdomain:    subdomain,
		ContactEmail: "owner@example.com",
		BusinessType: "salon",
	})
	if err != nil {
		t.Fatalf("failed to register tenant: %v", err)
	}
	return tenant
}

func TestRegisterExpandsSubdomain(t *testing.T) {
	svc, dbConn := newTestService(t)
	tenant := registerTenant(t, svc, "glow")

	if tenant.PrimaryHostname != "glow.bookme.app" {
		t.Fatalf("expected glow.bookme.app, got %s", tenant.PrimaryHostname)
	}
	if tenant.Status != domain.StatusTrial {
		t.Fatalf("expected trial status, got %s", tenant.Status)
	}
	if tenant.PartitionID != "tenant_glow" {
		t.Fatalf("expected tenant_glow, got %s", tenant.PartitionID)
	}
	if tenant.SubscriptionTier != "free" {
		t.Fatalf("expected free tier, got %s", tenant.SubscriptionTier)
	}

	var roleCount int64
	if err := dbConn.Model(&rbacdomain.TenantRole{}).
		Where("tenant_id = ?", tenant.ID).
		Count(&roleCount).Error; err != nil {
		t.Fatalf("failed to count roles: %v", err)
	}
	if roleCount != 5 {
		t.Fatalf("expected 5 system roles, got %d", roleCount)
	}

	var dom domain.Domain
	if err := dbConn.First(&dom, "hostname = ?", "glow.bookme.app").Error; err != nil {
		t.Fatalf("expected primary domain row: %v", err)
	}
	if !dom.IsPrimary || dom.TenantID != tenant.ID {
		t.Fatalf("unexpected domain row: %+v", dom)
	}

	var event domain.LifecycleEvent
	if err := dbConn.First(&event, "tenant_id = ?", tenant.ID).Error; err != nil {
		t.Fatalf("expected created event: %v", err)
	}
	if event.Event != domain.EventCreated {
		t.Fatalf("expected created event, got %s", event.Event)
	}
}

func TestRegisterReservedSubdomain(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), domain.RegistrationRequest{
		Name:         "Sneaky",
		Subdomain:    "admin",
		ContactEmail: "x@example.com",
	})
	if err != domain.ErrReservedSubdomain {
		t.Fatalf("expected ErrReservedSubdomain, got %v", err)
	}
}

func TestRegisterDuplicateHostnameRollsBack(t *testing.T) {
	svc, dbConn := newTestService(t)
	registerTenant(t, svc, "glow")

	_, err := svc.Register(context.Background(), domain.RegistrationRequest{
		Name:         "Copycat",
		Subdomain:    "glow",
		ContactEmail: "other@example.com",
	})
	if err != domain.ErrDuplicateHostname {
		t.Fatalf("expected ErrDuplicateHostname, got %v", err)
	}

	var tenantCount int64
	if err := dbConn.Model(&domain.Tenant{}).Count(&tenantCount).Error; err != nil {
		t.Fatalf("failed to count tenants: %v", err)
	}
	if tenantCount != 1 {
		t.Fatalf("expected 1 tenant after failed duplicate, got %d", tenantCount)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, domain.RegistrationRequest{Subdomain: "x", ContactEmail: "a@b.c"}); err != domain.ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := svc.Register(ctx, domain.RegistrationRequest{Name: "A", Subdomain: "x", ContactEmail: "nope"}); err != domain.ErrInvalidEmail {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Register(ctx, domain.RegistrationRequest{Name: "A", Subdomain: "-bad-", ContactEmail: "a@b.c"}); err != domain.ErrInvalidSubdomain {
		t.Fatalf("expected ErrInvalidSubdomain, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, dbConn := newTestService(t)
	tenant := registerTenant(t, svc, "glow")
	ctx := context.Background()

	if err := svc.UpdateStatus(ctx, tenant.ID, domain.StatusSuspended, "admin"); err != domain.ErrInvalidTransition {
		t.Fatalf("trial -> suspended should be rejected, got %v", err)
	}

	if err := svc.UpdateStatus(ctx, tenant.ID, domain.StatusActive, "admin"); err != nil {
		t.Fatalf("trial -> active failed: %v", err)
	}
	if err := svc.UpdateStatus(ctx, tenant.ID, domain.StatusSuspended, "admin"); err != nil {
		t.Fatalf("active -> suspended failed: %v", err)
	}
	if err := svc.UpdateStatus(ctx, tenant.ID, domain.StatusActive, "admin"); err != nil {
		t.Fatalf("suspended -> active failed: %v", err)
	}
	if err := svc.UpdateStatus(ctx, tenant.ID, domain.StatusCancelled, "admin"); err != nil {
		t.Fatalf("active -> cancelled failed: %v", err)
	}
	if err := svc.UpdateStatus(ctx, tenant.ID, domain.StatusActive, "admin"); err != domain.ErrInvalidTransition {
		t.Fatalf("cancelled is terminal, got %v", err)
	}

	var events []domain.LifecycleEvent
	if err := dbConn.Where("tenant_id = ?", tenant.ID).Order("id").Find(&events).Error; err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	kinds := make([]string, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Event)
	}
	want := []string{
		domain.EventCreated,
		domain.EventActivated,
		domain.EventSuspended,
		domain.EventReactivated,
		domain.EventCancelled,
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}

func TestUpdateTierRecordsDirection(t *testing.T) {
	svc, dbConn := newTestService(t)
	tenant := registerTenant(t, svc, "glow")
	ctx := context.Background()

	if err := svc.UpdateTier(ctx, tenant.ID, "pro", "admin"); err != nil {
		t.Fatalf("upgrade failed: %v", err)
	}
	if err := svc.UpdateTier(ctx, tenant.ID, "starter", "admin"); err != nil {
		t.Fatalf("downgrade failed: %v", err)
	}
	// Same tier is a no-op: no event.
	if err := svc.UpdateTier(ctx, tenant.ID, "starter", "admin"); err != nil {
		t.Fatalf("no-op tier change failed: %v", err)
	}
	if err := svc.UpdateTier(ctx, tenant.ID, "platinum", "admin"); err != domain.ErrInvalidTier {
		t.Fatalf("unknown tier must be rejected, got %v", err)
	}
	if err := svc.UpdateTier(ctx, tenant.ID, "", "admin"); err != domain.ErrInvalidTier {
		t.Fatalf("empty tier must be rejected, got %v", err)
	}

	var events []domain.LifecycleEvent
	if err := dbConn.Where("tenant_id = ? AND event IN ?", tenant.ID,
		[]string{domain.EventUpgraded, domain.EventDowngraded}).
		Order("id").Find(&events).Error; err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 tier events, got %d", len(events))
	}
	if events[0].Event != domain.EventUpgraded || events[1].Event != domain.EventDowngraded {
		t.Fatalf("unexpected tier events: %s, %s", events[0].Event, events[1].Event)
	}
}

func TestUpdateModules(t *testing.T) {
	svc, dbConn := newTestService(t)
	tenant := registerTenant(t, svc, "glow")
	ctx := context.Background()

	if err := svc.UpdateModules(ctx, tenant.ID, map[string]any{"billing": true}, "admin"); err != domain.ErrUnknownModule {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
	if err := svc.UpdateModules(ctx, tenant.ID, map[string]any{"bookings": false}, "admin"); err != domain.ErrRequiredModule {
		t.Fatalf("expected ErrRequiredModule, got %v", err)
	}

	if err := svc.UpdateModules(ctx, tenant.ID, map[string]any{"payments": true}, "admin"); err != nil {
		t.Fatalf("failed to update modules: %v", err)
	}

	updated, err := svc.Get(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("failed to fetch tenant: %v", err)
	}
	if enabled, _ := updated.EnabledModules["payments"].(bool); !enabled {
		t.Fatal("payments module should be enabled")
	}
	// Required modules stay on even when omitted from the request.
	if enabled, _ := updated.EnabledModules["bookings"].(bool); !enabled {
		t.Fatal("required bookings module must stay enabled")
	}
	// Optional modules omitted from the request are disabled.
	if enabled, _ := updated.EnabledModules["staff"].(bool); enabled {
		t.Fatal("omitted staff module should be disabled")
	}

	var event domain.LifecycleEvent
	if err := dbConn.First(&event, "event = ?", domain.EventModulesUpdated).Error; err != nil {
		t.Fatalf("expected modules_updated event: %v", err)
	}
}

func TestDeleteKeepsSnapshotEvent(t *testing.T) {
	svc, dbConn := newTestService(t)
	tenant := registerTenant(t, svc, "glow")
	ctx := context.Background()

	if err := svc.Delete(ctx, tenant.ID, "admin"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := svc.Get(ctx, tenant.ID); err != domain.ErrTenantNotFound {
		t.Fatalf("expected ErrTenantNotFound after delete, got %v", err)
	}

	var domainCount int64
	if err := dbConn.Model(&domain.Domain{}).Where("tenant_id = ?", tenant.ID).Count(&domainCount).Error; err != nil {
		t.Fatalf("failed to count domains: %v", err)
	}
	if domainCount != 0 {
		t.Fatalf("expected domains removed, got %d", domainCount)
	}

	var event domain.LifecycleEvent
	if err := dbConn.First(&event, "event = ?", domain.EventDeleted).Error; err != nil {
		t.Fatalf("expected deleted event to survive: %v", err)
	}
	if event.TenantID != nil {
		t.Fatalf("deleted event should not reference the removed row")
	}
	if event.Metadata["hostname"] != "glow.bookme.app" {
		t.Fatalf("expected denormalized hostname, got %v", event.Metadata["hostname"])
	}
	if event.Metadata["tenant_id"] != tenant.ID.String() {
		t.Fatalf("expected denormalized tenant id, got %v", event.Metadata["tenant_id"])
	}
}

func TestDeleteRemovesRolesAndMemberships(t *testing.T) {
	svc, dbConn := newTestService(t)
	tenant := registerTenant(t, svc, "glow")
	ctx := context.Background()

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rbacSvc := rbacservice.NewService(dbConn, rbacrepository.NewRepository(dbConn), clk, zap.NewNop())
	userSvc := userservice.NewService(dbConn, userrepository.NewRepository(dbConn), rbacSvc, clk, zap.NewNop())

	owner, err := userSvc.CreateUser(ctx, userdomain.CreateUserRequest{
		Email:    "owner@example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	var ownerRole rbacdomain.TenantRole
	if err := dbConn.First(&ownerRole, "tenant_id = ? AND code = ?", tenant.ID, rbacdomain.RoleOwner).Error; err != nil {
		t.Fatalf("failed to load owner role: %v", err)
	}
	if _, err := userSvc.AddMember(ctx, tenant.ID, userdomain.AddMemberRequest{
		UserID: owner.ID,
		RoleID: &ownerRole.ID,
	}); err != nil {
		t.Fatalf("failed to add member: %v", err)
	}

	got, err := userSvc.GetUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if !got.IsStaff {
		t.Fatal("owner membership should set is_staff")
	}

	if err := svc.Delete(ctx, tenant.ID, "admin"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var roleCount int64
	if err := dbConn.Model(&rbacdomain.TenantRole{}).Where("tenant_id = ?", tenant.ID).Count(&roleCount).Error; err != nil {
		t.Fatalf("failed to count roles: %v", err)
	}
	if roleCount != 0 {
		t.Fatalf("expected roles removed with the tenant, got %d", roleCount)
	}

	var membershipCount int64
	if err := dbConn.Model(&userdomain.TenantMembership{}).Where("tenant_id = ?", tenant.ID).Count(&membershipCount).Error; err != nil {
		t.Fatalf("failed to count memberships: %v", err)
	}
	if membershipCount != 0 {
		t.Fatalf("expected memberships removed with the tenant, got %d", membershipCount)
	}

	// The user survives, but staff access through the dead tenant is gone.
	got, err = userSvc.GetUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if got.IsStaff {
		t.Fatal("staff flag must clear with the last owner membership")
	}
}

func TestListEventsPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	tenant := registerTenant(t, svc, "glow")
	ctx := context.Background()

	if err := svc.UpdateStatus(ctx, tenant.ID, domain.StatusActive, "admin"); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if err := svc.UpdateStatus(ctx, tenant.ID, domain.StatusSuspended, "admin"); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	page, err := svc.ListEvents(ctx, tenant.ID, pagination.Pagination{PageSize: 2})
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(page.Events) != 2 || !page.HasMore {
		t.Fatalf("expected full first page with more, got %d events, more=%v", len(page.Events), page.HasMore)
	}
	// Newest first.
	if page.Events[0].Event != domain.EventSuspended {
		t.Fatalf("expected newest event first, got %s", page.Events[0].Event)
	}

	next, err := svc.ListEvents(ctx, tenant.ID, pagination.Pagination{PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("failed to list second page: %v", err)
	}
	if len(next.Events) != 1 || next.HasMore {
		t.Fatalf("expected final page with 1 event, got %d, more=%v", len(next.Events), next.HasMore)
	}
	if next.Events[0].Event != domain.EventCreated {
		t.Fatalf("expected created event last, got %s", next.Events[0].Event)
	}

	if _, err := svc.ListEvents(ctx, uuid.New(), pagination.Pagination{}); err != nil {
		t.Fatalf("listing events for unknown tenant should return empty page, got %v", err)
	}
}
