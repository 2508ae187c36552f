package tenant

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/clock"
	"github.com/bookmehq/bookme/internal/config"
	rbacdomain "github.com/bookmehq/bookme/internal/rbac/domain"
	"github.com/bookmehq/bookme/internal/tenant/domain"
	"github.com/bookmehq/bookme/internal/tenant/repository"
	"github.com/bookmehq/bookme/internal/tenant/service"
	userdomain "github.com/bookmehq/bookme/internal/user/domain"
	"github.com/bookmehq/bookme/pkg/partition"
)

var Module = fx.Module("tenant",
	fx.Provide(
		repository.NewRepository,
		newService,
	),
)

func newService(
	gdb *gorm.DB,
	repo domain.Repository,
	seeder rbacdomain.Seeder,
	members userdomain.Purger,
	partitions partition.Manager,
	clk clock.Clock,
	node *snowflake.Node,
	cfg config.Config,
	log *zap.Logger,
) domain.Service {
	return service.NewService(service.Params{
		DB:         gdb,
		Repo:       repo,
		Seeder:     seeder,
		Members:    members,
		Partitions: partitions,
		Clock:      clk,
		GenID:      node,
		BaseDomain: cfg.BaseDomain,
		Log:        log,
	})
}
