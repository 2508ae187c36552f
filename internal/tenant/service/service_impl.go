package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/clock"
	rbacdomain "github.com/bookmehq/bookme/internal/rbac/domain"
	"github.com/bookmehq/bookme/internal/tenant/domain"
	userdomain "github.com/bookmehq/bookme/internal/user/domain"
	"github.com/bookmehq/bookme/pkg/db"
	"github.com/bookmehq/bookme/pkg/db/pagination"
	"github.com/bookmehq/bookme/pkg/partition"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

type service struct {
	db         *gorm.DB
	repo       domain.Repository
	seeder     rbacdomain.Seeder
	members    userdomain.Purger
	partitions partition.Manager
	clock      clock.Clock
	genID      *snowflake.Node
	baseDomain string
	log        *zap.Logger
}

type Params struct {
	DB         *gorm.DB
	Repo       domain.Repository
	Seeder     rbacdomain.Seeder
	Members    userdomain.Purger
	Partitions partition.Manager
	Clock      clock.Clock
	GenID      *snowflake.Node
	BaseDomain string
	Log        *zap.Logger
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		repo:       p.Repo,
		seeder:     p.Seeder,
		members:    p.Members,
		partitions: p.Partitions,
		clock:      p.Clock,
		genID:      p.GenID,
		baseDomain: strings.ToLower(strings.TrimSpace(p.BaseDomain)),
		log:        p.Log.Named("tenant.service"),
	}
}

func (s *service) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	email := strings.TrimSpace(req.ContactEmail)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}

	businessType := strings.ToLower(strings.TrimSpace(req.BusinessType))
	if businessType == "" {
		businessType = domain.BusinessCustom
	}

	hostname, label, err := s.normalizeHostname(req.Subdomain)
	if err != nil {
		return nil, err
	}

	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = "system"
	}

	now := s.clock.Now()
	tenant := domain.Tenant{
		ID:              uuid.New(),
		Name:            name,
		PartitionID:     partitionIdentifier(label),
		Status:          domain.StatusTrial,
		BusinessType:    businessType,
		PrimaryHostname: hostname,
		ContactEmail:    email,
		ContactPhone:    strings.TrimSpace(req.ContactPhone),
		SubscriptionTier: "free",
		MaxStaff:            5,
		MaxServices:         10,
		MaxBookingsPerMonth: 100,
		EnabledModules:      datatypes.JSONMap(domain.DefaultModules(businessType)),
		Metadata:            datatypes.JSONMap{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	// Tenant + primary domain + system roles + created event are one
	// atomic unit. Concurrent registrations for the same hostname are
	// serialized by the unique constraint.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.CreateTenant(ctx, tenant); err != nil {
			return err
		}

		if err := repo.CreateDomain(ctx, domain.Domain{
			ID:        uuid.New(),
			Hostname:  hostname,
			TenantID:  tenant.ID,
			IsPrimary: true,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		if err := s.seeder.SeedSystemRoles(ctx, tx, tenant.ID); err != nil {
			return err
		}

		return repo.AppendEvent(ctx, domain.LifecycleEvent{
			ID:          s.genID.Generate(),
			TenantID:    &tenant.ID,
			Event:       domain.EventCreated,
			PerformedBy: actor,
			Metadata: datatypes.JSONMap{
				"partition_id": tenant.PartitionID,
				"hostname":     hostname,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateHostname
		}
		return nil, err
	}

	// Partition creation is opaque infrastructure; a failure here leaves
	// the registry consistent and is retried operationally.
	if err := s.partitions.CreatePartition(ctx, tenant.PartitionID); err != nil {
		s.log.Error("failed to create storage partition",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("partition_id", tenant.PartitionID),
			zap.Error(err),
		)
	}

	s.log.Info("tenant registered",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("hostname", hostname),
		zap.String("business_type", businessType),
	)

	return &tenant, nil
}

func (s *service) Get(ctx context.Context, tenantID uuid.UUID) (*domain.Tenant, error) {
	return s.repo.GetTenant(ctx, tenantID)
}

func (s *service) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

func (s *service) UpdateStatus(ctx context.Context, tenantID uuid.UUID, newStatus, actor string) error {
	newStatus = strings.ToLower(strings.TrimSpace(newStatus))
	switch newStatus {
	case domain.StatusTrial, domain.StatusActive, domain.StatusSuspended, domain.StatusCancelled:
	default:
		return domain.ErrInvalidStatus
	}

	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	if !domain.CanTransition(tenant.Status, newStatus) {
		return domain.ErrInvalidTransition
	}

	now := s.clock.Now()
	event := domain.TransitionEvent(tenant.Status, newStatus)
	previous := tenant.Status
	tenant.Status = newStatus
	tenant.UpdatedAt = now

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateTenant(ctx, *tenant); err != nil {
			return err
		}
		return repo.AppendEvent(ctx, domain.LifecycleEvent{
			ID:          s.genID.Generate(),
			TenantID:    &tenant.ID,
			Event:       event,
			PerformedBy: actorOrSystem(actor),
			Metadata: datatypes.JSONMap{
				"from": previous,
				"to":   newStatus,
			},
			OccurredAt: now,
		})
	})
}

var tierRank = map[string]int{
	"free":       0,
	"starter":    1,
	"pro":        2,
	"enterprise": 3,
}

func (s *service) UpdateTier(ctx context.Context, tenantID uuid.UUID, newTier, actor string) error {
	newTier = strings.ToLower(strings.TrimSpace(newTier))
	if _, ok := tierRank[newTier]; !ok {
		return domain.ErrInvalidTier
	}

	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant.SubscriptionTier == newTier {
		return nil
	}

	event := domain.EventUpgraded
	if tierRank[newTier] < tierRank[tenant.SubscriptionTier] {
		event = domain.EventDowngraded
	}

	now := s.clock.Now()
	previous := tenant.SubscriptionTier
	tenant.SubscriptionTier = newTier
	tenant.UpdatedAt = now

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateTenant(ctx, *tenant); err != nil {
			return err
		}
		return repo.AppendEvent(ctx, domain.LifecycleEvent{
			ID:          s.genID.Generate(),
			TenantID:    &tenant.ID,
			Event:       event,
			PerformedBy: actorOrSystem(actor),
			Metadata: datatypes.JSONMap{
				"from": previous,
				"to":   newTier,
			},
			OccurredAt: now,
		})
	})
}

func (s *service) UpdateModules(ctx context.Context, tenantID uuid.UUID, modules map[string]any, actor string) error {
	if modules == nil {
		modules = map[string]any{}
	}
	if err := domain.ValidateModules(modules); err != nil {
		return err
	}

	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	next := make(datatypes.JSONMap, len(domain.AvailableModules))
	for name, module := range domain.AvailableModules {
		enabled, _ := modules[name].(bool)
		next[name] = enabled || module.Required
	}

	now := s.clock.Now()
	tenant.EnabledModules = next
	tenant.UpdatedAt = now

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateTenant(ctx, *tenant); err != nil {
			return err
		}
		return repo.AppendEvent(ctx, domain.LifecycleEvent{
			ID:          s.genID.Generate(),
			TenantID:    &tenant.ID,
			Event:       domain.EventModulesUpdated,
			PerformedBy: actorOrSystem(actor),
			Metadata:    datatypes.JSONMap{"modules": map[string]any(next)},
			OccurredAt:  now,
		})
	})
}

func (s *service) Delete(ctx context.Context, tenantID uuid.UUID, actor string) error {
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	now := s.clock.Now()

	// The deleted event is written with a nil tenant reference and a
	// denormalized snapshot: the row it points at is about to go away.
	// Memberships go before roles, roles before the tenant row, so the
	// foreign keys hold at every step.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.AppendEvent(ctx, domain.LifecycleEvent{
			ID:          s.genID.Generate(),
			Event:       domain.EventDeleted,
			PerformedBy: actorOrSystem(actor),
			Metadata: datatypes.JSONMap{
				"tenant_id":    tenant.ID.String(),
				"name":         tenant.Name,
				"hostname":     tenant.PrimaryHostname,
				"partition_id": tenant.PartitionID,
			},
			OccurredAt: now,
		}); err != nil {
			return err
		}

		if err := s.members.PurgeTenantMemberships(ctx, tx, tenant.ID); err != nil {
			return err
		}

		if err := s.seeder.PurgeTenantRoles(ctx, tx, tenant.ID); err != nil {
			return err
		}

		if err := repo.DeleteDomainsByTenant(ctx, tenant.ID); err != nil {
			return err
		}

		return repo.DeleteTenant(ctx, tenant.ID)
	})
	if err != nil {
		return err
	}

	if err := s.partitions.DropPartition(ctx, tenant.PartitionID); err != nil {
		s.log.Error("failed to drop storage partition",
			zap.String("partition_id", tenant.PartitionID),
			zap.Error(err),
		)
	}

	return nil
}

func (s *service) ListEvents(ctx context.Context, tenantID uuid.UUID, page pagination.Pagination) (*domain.EventPage, error) {
	var afterID int64
	if token := strings.TrimSpace(page.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, err
		}
		afterID, err = strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, err
		}
	}

	limit := page.Limit()
	events, err := s.repo.ListEvents(ctx, tenantID, afterID, limit+1)
	if err != nil {
		return nil, err
	}

	result := &domain.EventPage{Events: events}
	if len(events) > limit {
		result.Events = events[:limit]
		result.HasMore = true
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID: strconv.FormatInt(int64(result.Events[limit-1].ID), 10),
		})
		if err != nil {
			return nil, err
		}
		result.NextPageToken = token
	}

	return result, nil
}

func (s *service) normalizeHostname(raw string) (hostname, label string, err error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.TrimSuffix(raw, ".")
	if raw == "" {
		return "", "", domain.ErrInvalidSubdomain
	}

	if !strings.Contains(raw, ".") {
		// Bare subdomain: expand against the platform base domain.
		if !subdomainPattern.MatchString(raw) {
			return "", "", domain.ErrInvalidSubdomain
		}
		if isReserved(raw) {
			return "", "", domain.ErrReservedSubdomain
		}
		return raw + "." + s.baseDomain, raw, nil
	}

	if raw == s.baseDomain {
		return "", "", domain.ErrInvalidSubdomain
	}

	label = strings.SplitN(raw, ".", 2)[0]
	if !subdomainPattern.MatchString(label) {
		return "", "", domain.ErrInvalidSubdomain
	}
	if strings.HasSuffix(raw, "."+s.baseDomain) && isReserved(label) {
		return "", "", domain.ErrReservedSubdomain
	}
	return raw, label, nil
}

func isReserved(label string) bool {
	for _, reserved := range domain.ReservedSubdomains {
		if label == reserved {
			return true
		}
	}
	return false
}

func partitionIdentifier(label string) string {
	return "tenant_" + strings.ReplaceAll(slug.Make(label), "-", "_")
}

func actorOrSystem(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return "system"
	}
	return actor
}
