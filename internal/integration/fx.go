package integration

import (
	"go.uber.org/fx"
)

var Module = fx.Module("integration.registry",
	fx.Provide(NewRegistry),
)
