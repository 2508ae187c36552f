package hostcheck

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/clock"
	"github.com/bookmehq/bookme/internal/config"
	"github.com/bookmehq/bookme/internal/domaindir"
	tenantdomain "github.com/bookmehq/bookme/internal/tenant/domain"
	"github.com/bookmehq/bookme/internal/tenant/repository"
	"github.com/bookmehq/bookme/pkg/db"
)

func newTestChecker(t *testing.T, allowed []string) (*Checker, *gorm.DB) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&tenantdomain.Tenant{}, &tenantdomain.Domain{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	dir := domaindir.New(repository.NewRepository(dbConn), clk, 30*time.Second, "bookme.app", zap.NewNop())
	return New(dir, config.NewStaticAllowedHosts(allowed)), dbConn
}

func TestLoopbackAlwaysAllowed(t *testing.T) {
	checker, _ := newTestChecker(t, nil)
	ctx := context.Background()

	for _, host := range []string{"localhost", "localhost:8080", "127.0.0.1", "127.0.0.1:3000", "::1"} {
		if err := checker.Validate(ctx, host); err != nil {
			t.Fatalf("loopback %s should pass: %v", host, err)
		}
	}
}

func TestRegisteredDomainAllowed(t *testing.T) {
	checker, dbConn := newTestChecker(t, nil)

	if err := dbConn.Create(&tenantdomain.Domain{
		ID:       uuid.New(),
		Hostname: "custom-domain.com",
		TenantID: uuid.New(),
	}).Error; err != nil {
		t.Fatalf("failed to create domain: %v", err)
	}

	if err := checker.Validate(context.Background(), "custom-domain.com"); err != nil {
		t.Fatalf("registered domain should pass: %v", err)
	}
}

func TestBaseWildcardAllowed(t *testing.T) {
	checker, _ := newTestChecker(t, nil)

	if err := checker.Validate(context.Background(), "whatever.bookme.app"); err != nil {
		t.Fatalf("base wildcard should pass: %v", err)
	}
}

func TestAllowListMatching(t *testing.T) {
	checker, _ := newTestChecker(t, []string{"internal.example.com", ".trusted.net"})
	ctx := context.Background()

	if err := checker.Validate(ctx, "internal.example.com"); err != nil {
		t.Fatalf("exact allow-list entry should pass: %v", err)
	}
	if err := checker.Validate(ctx, "a.trusted.net"); err != nil {
		t.Fatalf("dotted entry admits subdomains: %v", err)
	}
	if err := checker.Validate(ctx, "trusted.net"); err != nil {
		t.Fatalf("dotted entry admits the bare domain: %v", err)
	}
	if err := checker.Validate(ctx, "other.example.com"); err != ErrDisallowedHost {
		t.Fatalf("expected ErrDisallowedHost, got %v", err)
	}
}

func TestUnknownHostRejected(t *testing.T) {
	checker, _ := newTestChecker(t, nil)

	if err := checker.Validate(context.Background(), "evil.com"); err != ErrDisallowedHost {
		t.Fatalf("expected ErrDisallowedHost, got %v", err)
	}
	if err := checker.Validate(context.Background(), ""); err != ErrDisallowedHost {
		t.Fatalf("empty host rejected, got %v", err)
	}
}
