package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/learnstack/enrollhook/internal/config"
	"github.com/learnstack/enrollhook/internal/dispatch"
	"github.com/learnstack/enrollhook/internal/integration"
	"github.com/learnstack/enrollhook/internal/metrics"
	"github.com/learnstack/enrollhook/internal/migration"
	"github.com/learnstack/enrollhook/internal/order"
	"github.com/learnstack/enrollhook/internal/server"
	"github.com/learnstack/enrollhook/internal/webhook"
	"github.com/learnstack/enrollhook/pkg/db"
	"github.com/learnstack/enrollhook/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		metrics.Module,

		integration.Module,
		webhook.Module,
		order.Module,
		dispatch.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
