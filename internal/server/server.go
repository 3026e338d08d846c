package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/spk/internal/audit"
	auditdomain "github.com/smallbiznis/spk/internal/audit/domain"
	"github.com/smallbiznis/spk/internal/config"
	"github.com/smallbiznis/spk/internal/document"
	documentdomain "github.com/smallbiznis/spk/internal/document/domain"
	"github.com/smallbiznis/spk/internal/lock"
	"github.com/smallbiznis/spk/internal/notification"
	"github.com/smallbiznis/spk/internal/observability"
	obslogger "github.com/smallbiznis/spk/internal/observability/logger"
	obstracing "github.com/smallbiznis/spk/internal/observability/tracing"
	"github.com/smallbiznis/spk/internal/providers"
	"github.com/smallbiznis/spk/internal/ratelimit"
	"github.com/smallbiznis/spk/internal/workorder"
	"github.com/smallbiznis/spk/internal/workorder/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	notification.Module,
	providers.Module,
	lock.Module,
	ratelimit.Module,
	workorder.Module,
	document.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	Cfg    config.Config
	ObsCfg observability.Config
	Log    *zap.Logger
}

func NewEngine(p EngineParams) *gin.Engine {
	if !p.ObsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(p.Log, obslogger.MiddlewareConfig{
		Debug:           p.ObsCfg.Debug(),
		DefaultActor:    p.Cfg.DefaultActor,
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())
	r.NoRoute(NoRoute())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if driver := p.Cfg.Artifact.Driver; (driver == "" || driver == "fs") && p.Cfg.Artifact.Dir != "" {
		r.Static("/files", p.Cfg.Artifact.Dir)
	}

	return r
}

func registerGin(p EngineParams) *gin.Engine {
	return NewEngine(p)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
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

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	workOrderSvc domain.Service
	documentSvc  documentdomain.Service
	auditSvc     auditdomain.Service
	docLimiter   *ratelimit.DocumentLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	WorkOrderSvc domain.Service
	DocumentSvc  documentdomain.Service
	AuditSvc     auditdomain.Service
	DocLimiter   *ratelimit.DocumentLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		workOrderSvc: p.WorkOrderSvc,
		documentSvc:  p.DocumentSvc,
		auditSvc:     p.AuditSvc,
		docLimiter:   p.DocLimiter,
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	api.POST("/work-orders", s.CreateWorkOrder)
	api.GET("/work-orders", s.ListWorkOrders)
	api.GET("/work-orders/:id", s.GetWorkOrder)
	api.DELETE("/work-orders/:id", s.DeleteWorkOrder)
	api.POST("/work-orders/:id/publish", s.PublishWorkOrder)
	api.GET("/work-orders/:id/payments", s.ListPayments)
	api.GET("/work-orders/:id/document", ratelimit.GinMiddleware(s.docLimiter), s.GetDocument)
	api.DELETE("/work-orders/:id/document", s.InvalidateDocument)

	api.PATCH("/payments/:id", s.UpdatePayment)

	api.GET("/vendors/:slug/work-orders", s.ListVendorWorkOrders)

	api.GET("/audit-logs", s.ListAuditLogs)
}
