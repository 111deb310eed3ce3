package handler

import (
	"time"

	"balance-monitor/internal/adapter/http/middleware"
	"balance-monitor/internal/core/domain"
	"balance-monitor/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	BalanceSvc      ports.BalanceService
	Lifecycle       ports.LifecycleNotifier
	HealthCheckers  []ports.HealthChecker
	FormatDate      domain.DateFormatter // nil = relative dates, local time
	StreamHeartbeat time.Duration        // 0 = 15s
	OpenAPISpec     []byte               // nil = /swagger/spec returns 404
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))

	// Health check (deep: verifies configured dependencies)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swaggerHandler := NewSwaggerHandler(deps.OpenAPISpec)
	swagger := r.Group("/swagger")
	{
		swagger.GET("", swaggerHandler.UI)
		swagger.GET("/spec", swaggerHandler.Spec)
	}

	balanceHandler := NewBalanceHandler(deps.BalanceSvc, deps.Lifecycle, deps.FormatDate, deps.StreamHeartbeat, deps.Logger)

	v1 := r.Group("/api/v1")

	balance := v1.Group("/balance")
	{
		balance.GET("", balanceHandler.Get)
		balance.POST("/refresh", balanceHandler.Refresh)
		balance.GET("/stream", balanceHandler.Stream)
	}

	v1.POST("/lifecycle/:signal", balanceHandler.Lifecycle)

	return r
}
