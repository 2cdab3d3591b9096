package dispatch

import (
	"go.uber.org/fx"
)

var Module = fx.Module("dispatch",
	fx.Provide(NewRedisDispatcher),
)
