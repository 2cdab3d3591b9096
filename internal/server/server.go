package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnstack/enrollhook/internal/config"
	"github.com/learnstack/enrollhook/internal/dispatch"
	"github.com/learnstack/enrollhook/internal/integration"
	"github.com/learnstack/enrollhook/internal/metrics"
	orderdomain "github.com/learnstack/enrollhook/internal/order/domain"
	"github.com/learnstack/enrollhook/internal/webhook/envelope"
	"github.com/learnstack/enrollhook/internal/webhook/resolver"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterWebhookRoutes() }),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	registry    *integration.Registry
	envelopeSvc *envelope.Service
	resolver    *resolver.Resolver
	orderSvc    orderdomain.Service
	dispatcher  dispatch.Dispatcher
	metrics     *metrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Registry    *integration.Registry
	EnvelopeSvc *envelope.Service
	Resolver    *resolver.Resolver
	OrderSvc    orderdomain.Service
	Dispatcher  dispatch.Dispatcher
	Metrics     *metrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		registry:    p.Registry,
		envelopeSvc: p.EnvelopeSvc,
		resolver:    p.Resolver,
		orderSvc:    p.OrderSvc,
		dispatcher:  p.Dispatcher,
		metrics:     p.Metrics,
	}
}

func (s *Server) RegisterWebhookRoutes() {
	hooks := s.engine.Group("/v1/webhooks/:integration")
	hooks.POST("/order/create", s.HandleOrderCreate)
	hooks.POST("/order/update", s.HandleOrderUpdate)
	hooks.POST("/order/delete", s.HandleOrderDelete)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
