package config

import (
	"go.uber.org/fx"

	"github.com/bookmehq/bookme/pkg/db"
)

var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewAllowedHostsHolder,
		DBConfig,
	),
)

// DBConfig projects the application config onto the database package.
func DBConfig(cfg Config) db.Config {
	return db.Config{
		Type:            cfg.DBType,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		SSLMode:         cfg.DBSSLMode,
		MaxIdleConn:     cfg.DBMaxIdleConn,
		MaxOpenConn:     cfg.DBMaxOpenConn,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}
}
