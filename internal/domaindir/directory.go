package domaindir

import (
	"context"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/bookmehq/bookme/internal/clock"
	tenantdomain "github.com/bookmehq/bookme/internal/tenant/domain"
)

var (
	refreshTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookme_domain_directory_refresh_total",
		Help: "Snapshot refreshes attempted by the domain directory.",
	})
	refreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookme_domain_directory_refresh_failures_total",
		Help: "Snapshot refreshes that failed and kept the stale snapshot.",
	})
)

// Directory answers hostname lookups from an in-memory snapshot of the
// tenant_domains table. The snapshot is refreshed at most once per TTL;
// readers never block on a refresh, and a failed refresh keeps serving
// the previous snapshot.
type Directory struct {
	repo       tenantdomain.Repository
	clock      clock.Clock
	ttl        time.Duration
	baseDomain string
	log        *zap.Logger

	snapshot  atomic.Value // *snapshot
	refreshMu sync.Mutex
}

type snapshot struct {
	hosts   map[string]uuid.UUID
	takenAt time.Time
}

func New(repo tenantdomain.Repository, clk clock.Clock, ttl time.Duration, baseDomain string, log *zap.Logger) *Directory {
	d := &Directory{
		repo:       repo,
		clock:      clk,
		ttl:        ttl,
		baseDomain: strings.ToLower(strings.TrimSpace(baseDomain)),
		log:        log.Named("domaindir"),
	}
	d.snapshot.Store(&snapshot{hosts: map[string]uuid.UUID{}})
	return d
}

// Normalize lowercases a host header and strips any port.
func Normalize(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// Resolve maps a normalized hostname to its tenant. Unknown hostnames
// return ok=false; the caller decides whether the base wildcard applies.
func (d *Directory) Resolve(ctx context.Context, hostname string) (uuid.UUID, bool) {
	snap := d.current(ctx)
	tenantID, ok := snap.hosts[Normalize(hostname)]
	return tenantID, ok
}

// Known reports whether the hostname is registered to any tenant.
func (d *Directory) Known(ctx context.Context, hostname string) bool {
	_, ok := d.Resolve(ctx, hostname)
	return ok
}

// IsBaseWildcard reports whether the hostname is the platform base domain
// or any subdomain of it.
func (d *Directory) IsBaseWildcard(hostname string) bool {
	host := Normalize(hostname)
	return host == d.baseDomain || strings.HasSuffix(host, "."+d.baseDomain)
}

func (d *Directory) current(ctx context.Context) *snapshot {
	snap := d.snapshot.Load().(*snapshot)
	if d.clock.Now().Sub(snap.takenAt) < d.ttl {
		return snap
	}

	// One goroutine refreshes; everyone else keeps the stale snapshot
	// rather than queuing on the database.
	if !d.refreshMu.TryLock() {
		return snap
	}
	defer d.refreshMu.Unlock()

	// Re-check under the lock: another goroutine may have just finished.
	snap = d.snapshot.Load().(*snapshot)
	if d.clock.Now().Sub(snap.takenAt) < d.ttl {
		return snap
	}

	refreshTotal.Inc()
	fresh, err := d.load(ctx)
	if err != nil {
		refreshFailures.Inc()
		d.log.Warn("domain directory refresh failed, serving stale snapshot",
			zap.Time("taken_at", snap.takenAt),
			zap.Error(err),
		)
		return snap
	}

	d.snapshot.Store(fresh)
	return fresh
}

func (d *Directory) load(ctx context.Context) (*snapshot, error) {
	domains, err := d.repo.ListDomains(ctx)
	if err != nil {
		return nil, err
	}

	hosts := make(map[string]uuid.UUID, len(domains))
	for _, dom := range domains {
		hosts[Normalize(dom.Hostname)] = dom.TenantID
	}
	return &snapshot{hosts: hosts, takenAt: d.clock.Now()}, nil
}
