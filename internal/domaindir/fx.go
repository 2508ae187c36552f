package domaindir

import (
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bookmehq/bookme/internal/clock"
	"github.com/bookmehq/bookme/internal/config"
	tenantdomain "github.com/bookmehq/bookme/internal/tenant/domain"
)

var Module = fx.Module("domaindir",
	fx.Provide(func(repo tenantdomain.Repository, clk clock.Clock, cfg config.Config, log *zap.Logger) *Directory {
		ttl := time.Duration(cfg.DomainCacheTTL) * time.Second
		return New(repo, clk, ttl, cfg.BaseDomain, log)
	}),
)
