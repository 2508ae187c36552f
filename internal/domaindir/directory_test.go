package domaindir

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/clock"
	tenantdomain "github.com/bookmehq/bookme/internal/tenant/domain"
	"github.com/bookmehq/bookme/internal/tenant/repository"
	"github.com/bookmehq/bookme/pkg/db"
)

func newTestDirectory(t *testing.T) (*Directory, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&tenantdomain.Tenant{}, &tenantdomain.Domain{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	dir := New(repository.NewRepository(dbConn), clk, 30*time.Second, "bookme.app", zap.NewNop())
	return dir, dbConn, clk
}

func addDomain(t *testing.T, dbConn *gorm.DB, hostname string) uuid.UUID {
	t.Helper()

	tenantID := uuid.New()
	if err := dbConn.Create(&tenantdomain.Domain{
		ID:       uuid.New(),
		Hostname: hostname,
		TenantID: tenantID,
	}).Error; err != nil {
		t.Fatalf("failed to create domain: %v", err)
	}
	return tenantID
}

func TestResolveKnownHostname(t *testing.T) {
	dir, dbConn, _ := newTestDirectory(t)
	tenantID := addDomain(t, dbConn, "glow.bookme.app")

	got, ok := dir.Resolve(context.Background(), "glow.bookme.app")
	if !ok || got != tenantID {
		t.Fatalf("expected %s, got %s ok=%v", tenantID, got, ok)
	}

	// Port and case are irrelevant.
	got, ok = dir.Resolve(context.Background(), "GLOW.bookme.app:8443")
	if !ok || got != tenantID {
		t.Fatalf("normalization failed, got %s ok=%v", got, ok)
	}

	if _, ok := dir.Resolve(context.Background(), "nobody.bookme.app"); ok {
		t.Fatal("unknown hostname must not resolve")
	}
}

func TestSnapshotRefreshesAfterTTL(t *testing.T) {
	dir, dbConn, clk := newTestDirectory(t)
	ctx := context.Background()

	if dir.Known(ctx, "late.bookme.app") {
		t.Fatal("hostname should not be known yet")
	}

	addDomain(t, dbConn, "late.bookme.app")

	// Within the TTL the stale snapshot still answers.
	if dir.Known(ctx, "late.bookme.app") {
		t.Fatal("snapshot should still be stale")
	}

	clk.Advance(31 * time.Second)
	if !dir.Known(ctx, "late.bookme.app") {
		t.Fatal("expired snapshot should have been refreshed")
	}
}

func TestFailedRefreshKeepsStaleSnapshot(t *testing.T) {
	dir, dbConn, clk := newTestDirectory(t)
	ctx := context.Background()
	tenantID := addDomain(t, dbConn, "glow.bookme.app")

	if _, ok := dir.Resolve(ctx, "glow.bookme.app"); !ok {
		t.Fatal("expected initial resolution")
	}

	// Break the database; the directory keeps serving what it has.
	sqlDB, err := dbConn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("failed to close db: %v", err)
	}

	clk.Advance(31 * time.Second)
	got, ok := dir.Resolve(ctx, "glow.bookme.app")
	if !ok || got != tenantID {
		t.Fatalf("stale snapshot should survive a failed refresh, got ok=%v", ok)
	}
}

func TestIsBaseWildcard(t *testing.T) {
	dir, _, _ := newTestDirectory(t)

	if !dir.IsBaseWildcard("bookme.app") {
		t.Fatal("apex is part of the wildcard")
	}
	if !dir.IsBaseWildcard("anything.bookme.app:443") {
		t.Fatal("subdomains are part of the wildcard")
	}
	if dir.IsBaseWildcard("evil-bookme.app") {
		t.Fatal("suffix tricks must not match")
	}
	if dir.IsBaseWildcard("example.com") {
		t.Fatal("other domains must not match")
	}
}
