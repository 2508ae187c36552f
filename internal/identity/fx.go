package identity

import (
	"go.uber.org/fx"

	"github.com/bookmehq/bookme/internal/config"
	userdomain "github.com/bookmehq/bookme/internal/user/domain"
)

var Module = fx.Module("identity",
	fx.Provide(func(cfg config.Config, users userdomain.Repository) Resolver {
		return NewJWTResolver(cfg.AuthJWTSecret, users)
	}),
)
