package tenantbind

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/domaindir"
	tenantdomain "github.com/bookmehq/bookme/internal/tenant/domain"
	"github.com/bookmehq/bookme/pkg/partition"
	"github.com/bookmehq/bookme/pkg/tenantctx"
)

// Binder resolves a request's hostname to its tenant binding. Hostnames
// that belong to no tenant bind to the platform-level context (nil).
type Binder struct {
	directory  *domaindir.Directory
	repo       tenantdomain.Repository
	partitions partition.Manager
	db         *gorm.DB
	log        *zap.Logger
}

func New(directory *domaindir.Directory, repo tenantdomain.Repository, partitions partition.Manager, db *gorm.DB, log *zap.Logger) *Binder {
	return &Binder{
		directory:  directory,
		repo:       repo,
		partitions: partitions,
		db:         db,
		log:        log.Named("tenantbind"),
	}
}

// Bind maps a hostname to an immutable tenant context. The directory
// snapshot answers the common case; a miss falls through to the
// authoritative table so a tenant registered moments ago still resolves.
func (b *Binder) Bind(ctx context.Context, hostname string) (*tenantctx.Context, error) {
	hostname = domaindir.Normalize(hostname)

	tenantID, ok := b.directory.Resolve(ctx, hostname)
	if !ok {
		dom, err := b.repo.DomainByHostname(ctx, hostname)
		if err != nil {
			return nil, err
		}
		if dom == nil {
			return nil, nil
		}
		tenantID = dom.TenantID
	}

	tenant, err := b.repo.GetTenant(ctx, tenantID)
	if err != nil {
		if err == tenantdomain.ErrTenantNotFound {
			// Directory lag after a deletion.
			b.log.Warn("hostname resolved to a missing tenant",
				zap.String("hostname", hostname),
				zap.String("tenant_id", tenantID.String()),
			)
			return nil, nil
		}
		return nil, err
	}

	scoped := b.partitions.Scope(b.db, tenant.PartitionID)
	return tenantctx.New(tenant.ID, tenant.PartitionID, tenant.Status, scoped), nil
}
