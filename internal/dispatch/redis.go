package dispatch

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/learnstack/enrollhook/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RedisDispatcher enqueues tasks onto a redis list consumed by the
// enrollment worker.
type RedisDispatcher struct {
	client *redis.Client
	log    *zap.Logger
	key    string
}

type RedisParams struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

func NewRedisDispatcher(lc fx.Lifecycle, p RedisParams) (Dispatcher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(p.Cfg.RedisAddr),
		Password: strings.TrimSpace(p.Cfg.RedisPassword),
		DB:       p.Cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &RedisDispatcher{
		client: client,
		log:    p.Log.Named("dispatch.redis"),
		key:    p.Cfg.QueueKey,
	}, nil
}

func (d *RedisDispatcher) Schedule(ctx context.Context, task Task) error {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}

	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}

	if err := d.client.LPush(ctx, d.key, raw).Err(); err != nil {
		d.log.Error("failed to enqueue task",
			zap.String("integration", task.Integration),
			zap.String("order_id", task.OrderID),
			zap.Error(err),
		)
		return err
	}

	d.log.Info("scheduled order for processing",
		zap.String("integration", task.Integration),
		zap.String("order_id", task.OrderID),
		zap.String("action", string(task.Action)),
		zap.Bool("notify", task.Notify),
	)
	return nil
}
