package order

import (
	"github.com/learnstack/enrollhook/internal/order/repository"
	"github.com/learnstack/enrollhook/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.ledger",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
