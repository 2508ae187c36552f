package migration

import (
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/bookmehq/bookme/internal/config"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// SQL migrations target postgres; other backends (tests) migrate
		// through AutoMigrate.
		if !strings.EqualFold(cfg.DBType, "postgres") {
			return nil
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
