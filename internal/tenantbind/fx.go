package tenantbind

import "go.uber.org/fx"

var Module = fx.Module("tenantbind",
	fx.Provide(New),
)
