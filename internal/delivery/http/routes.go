package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/medifocal/catalog/config"
	"github.com/medifocal/catalog/internal/metrics"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(metrics.Middleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check and metrics endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/search", handler.SearchProducts)
			products.GET("/featured", handler.FeaturedProducts)
			products.GET("/clearance", handler.ClearanceProducts)
			products.GET("/:id", handler.GetProduct)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", handler.ListCategories)
			categories.GET("/:name", handler.GetCategory)
			categories.GET("/:name/products", handler.CategoryProducts)
		}

		v1.GET("/parent-categories/:name/products", handler.ParentCategoryProducts)

		v1.POST("/admin/cache/invalidate", handler.InvalidateCache)
	}

	return router
}
