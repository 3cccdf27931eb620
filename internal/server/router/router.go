package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/server/handlers"
)

// New wires the warehouse API routes.
func New(warehouse *handlers.WarehouseHandler, lifecycle *handlers.LifecycleHandler, logger *zap.Logger) *gin.Engine {
	r := newEngine(logger)

	r.GET("/health", warehouse.Health)
	r.GET("/inventory", warehouse.Inventory)
	r.GET("/cask/:id/gauge-record", warehouse.GaugeRecord)
	r.GET("/cask/:id/estimate", warehouse.Estimate)
	r.GET("/cask/:id/lifecycle", warehouse.Lifecycle)
	r.GET("/cask/:id/reference-valuation", warehouse.ReferenceValuation)
	r.GET("/casks/batch", warehouse.CaskBatch)
	r.GET("/lifecycle/recent", warehouse.RecentLifecycle)
	r.GET("/portfolio/summary", warehouse.Summary)
	r.GET("/market-data", warehouse.MarketData)
	r.POST("/events/lifecycle", lifecycle.Record)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// NewTriggerRouter wires the workflow trigger endpoint.
func NewTriggerRouter(trigger *handlers.TriggerHandler, logger *zap.Logger) *gin.Engine {
	r := newEngine(logger)

	r.POST("/trigger/lifecycle", trigger.Lifecycle)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("trigger router initialized")
	}

	return r
}

func newEngine(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
