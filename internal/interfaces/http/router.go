// Package http exposes the certification pipeline over a Gin HTTP API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/interfaces/http/handlers"
	"github.com/turtacn/pnet/internal/interfaces/http/middleware"
	"github.com/turtacn/pnet/pkg/logger"
)

// Router HTTP 路由器
type Router struct {
	engine               *gin.Engine
	config               *config.ServerConfig
	logger               logger.Logger
	healthHandler        *handlers.HealthHandler
	certificationHandler *handlers.CertificationHandler
	tracer               trace.Tracer
	observer             middleware.RequestObserver
	gatherer             prometheus.Gatherer
	server               *http.Server
}

// NewRouter 创建路由器；gatherer 为 nil 时使用默认注册表
func NewRouter(
	cfg *config.ServerConfig,
	log logger.Logger,
	healthHandler *handlers.HealthHandler,
	certificationHandler *handlers.CertificationHandler,
	tracer trace.Tracer,
	observer middleware.RequestObserver,
	gatherer prometheus.Gatherer,
) *Router {
	// 设置 Gin 模式
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := &Router{
		engine:               gin.New(),
		config:               cfg,
		logger:               log.WithComponent("HTTPRouter"),
		healthHandler:        healthHandler,
		certificationHandler: certificationHandler,
		tracer:               tracer,
		observer:             observer,
		gatherer:             gatherer,
	}
	r.setupRoutes()
	r.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:        r.engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	return r
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 全局中间件
	r.engine.Use(handlers.RecoveryMiddleware(r.logger))
	r.engine.Use(handlers.RequestIDMiddleware())
	r.engine.Use(handlers.LoggingMiddleware(r.logger))
	r.engine.Use(middleware.ObservabilityMiddleware(r.tracer, r.observer))

	// CORS 配置
	r.engine.Use(cors.New(cors.Config{
		AllowAllOrigins: len(r.config.AllowedOrigins) == 0,
		AllowOrigins:    r.config.AllowedOrigins,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", handlers.RequestIDHeader},
		ExposeHeaders:   []string{handlers.RequestIDHeader, "Retry-After"},
		MaxAge:          12 * time.Hour,
	}))

	// 健康检查路由
	r.engine.GET("/health", r.healthHandler.HealthCheck)
	r.engine.GET("/health/live", r.healthHandler.LivenessCheck)

	// Prometheus metrics
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	// Pprof 性能分析（仅在非生产环境）
	if r.config.Environment != "production" {
		pprof.Register(r.engine)
	}

	// API 路由组
	v1 := r.engine.Group("/api/v1")
	{
		calibrations := v1.Group("/calibrations")
		{
			calibrations.POST("", middleware.RateLimitMiddleware(r.config.CalibrationRate, 1, r.logger), r.certificationHandler.Calibrate)
			calibrations.GET("/current", r.certificationHandler.CurrentCalibration)
		}
		v1.POST("/assessments", r.certificationHandler.Assess)
		v1.GET("/controls", r.certificationHandler.ListControls)
	}

	// 404 处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// Start 启动 HTTP 服务器，阻塞直到服务器关闭
func (r *Router) Start() error {
	r.logger.Info(context.Background(), "Starting HTTP server", logger.Fields{"address": r.server.Addr})
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	r.logger.Info(ctx, "Stopping HTTP server...")
	return r.server.Shutdown(ctx)
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

//Personal.AI order the ending
