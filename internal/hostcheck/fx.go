package hostcheck

import "go.uber.org/fx"

var Module = fx.Module("hostcheck",
	fx.Provide(New),
)
