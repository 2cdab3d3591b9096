package webhook

import (
	"github.com/learnstack/enrollhook/internal/webhook/envelope"
	"github.com/learnstack/enrollhook/internal/webhook/resolver"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(envelope.NewService),
	fx.Provide(resolver.New),
)
