package user

import (
	"go.uber.org/fx"

	"github.com/bookmehq/bookme/internal/user/domain"
	"github.com/bookmehq/bookme/internal/user/repository"
	"github.com/bookmehq/bookme/internal/user/service"
)

var Module = fx.Module("user",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
		func(svc domain.Service) domain.Purger { return svc },
	),
)
