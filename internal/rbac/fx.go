package rbac

import (
	"go.uber.org/fx"

	"github.com/bookmehq/bookme/internal/rbac/domain"
	"github.com/bookmehq/bookme/internal/rbac/repository"
	"github.com/bookmehq/bookme/internal/rbac/service"
)

var Module = fx.Module("rbac",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
		func(svc domain.Service) domain.Seeder { return svc },
	),
)
