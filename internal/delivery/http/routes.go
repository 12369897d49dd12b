package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gradecard/backend/config"
	"github.com/gradecard/backend/internal/logger"
)

// SetupRouter creates and configures the Gin router. metrics may be nil.
func SetupRouter(cfg *config.Config, handler *Handler, metrics http.Handler, log *logger.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		inspections := v1.Group("/inspections")
		{
			inspections.POST("/resolve", handler.ResolveInspection)
			inspections.POST("/page", handler.ResolvePage)
		}
		v1.POST("/navigation", handler.Navigation)
	}

	return router
}
