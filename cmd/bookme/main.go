package main

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/clock"
	"github.com/bookmehq/bookme/internal/config"
	"github.com/bookmehq/bookme/internal/domaindir"
	"github.com/bookmehq/bookme/internal/guard"
	"github.com/bookmehq/bookme/internal/hostcheck"
	"github.com/bookmehq/bookme/internal/identity"
	"github.com/bookmehq/bookme/internal/logger"
	"github.com/bookmehq/bookme/internal/migration"
	"github.com/bookmehq/bookme/internal/ratelimit"
	"github.com/bookmehq/bookme/internal/rbac"
	"github.com/bookmehq/bookme/internal/server"
	"github.com/bookmehq/bookme/internal/tenant"
	"github.com/bookmehq/bookme/internal/tenantbind"
	"github.com/bookmehq/bookme/internal/user"
	"github.com/bookmehq/bookme/pkg/db"
	"github.com/bookmehq/bookme/pkg/partition"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(registerSnowflake),
		fx.Provide(registerPartitionManager),
		db.Module,
		clock.Module,
		migration.Module,

		rbac.Module,
		tenant.Module,
		user.Module,
		domaindir.Module,
		hostcheck.Module,
		tenantbind.Module,
		identity.Module,
		guard.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func registerPartitionManager(cfg config.Config, gdb *gorm.DB) partition.Manager {
	if strings.EqualFold(cfg.DBType, "postgres") {
		return partition.NewSchemaManager(gdb)
	}
	return partition.NewNoopManager()
}
