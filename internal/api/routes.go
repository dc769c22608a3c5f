package api

import (
	"interview-api/internal/api/handlers"
	"interview-api/internal/api/middlewares"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes with proper middleware
func SetupRoutes(router *gin.Engine, services *Services) {
	cfg := services.Config

	// Global middleware
	router.Use(middlewares.Recovery(services.GetLogger()))
	router.Use(middlewares.RequestLogging(services.GetLogger()))
	router.Use(middlewares.Metrics(services.GetMetrics()))
	router.Use(middlewares.CORS(cfg.API.CORS))
	router.Use(middlewares.Security())
	if cfg.API.Compression {
		router.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	if cfg.API.RateLimit > 0 {
		router.Use(middlewares.RateLimit(services.RateLimiter()))
	}
	if cfg.API.ParameterPollution {
		router.Use(middlewares.HPP())
	}
	router.Use(middlewares.Sanitize(services))

	// Health check (no auth required)
	router.GET("/health", handlers.HealthCheck(services))
	router.GET("/ping", handlers.HealthCheck(services))
	router.GET("/stats", handlers.GetSystemStats(services))
	router.GET("/metrics", gin.WrapH(services.GetMetrics().Handler()))

	setupInterviewRoutes(router.Group("/interview"), services)
}

// setupInterviewRoutes configures the candidate endpoints. addData is public
// and hands out the token the other routes require.
func setupInterviewRoutes(rg *gin.RouterGroup, services *Services) {
	rg.POST("/addData", handlers.AddCandidate(services))

	protected := rg.Group("")
	protected.Use(middlewares.AuthRequired(services))
	{
		protected.GET("/getData", handlers.GetCandidates(services))
		protected.PUT("/updateData", handlers.UpdateCandidate(services))
		protected.DELETE("/deleteData", handlers.DeleteCandidate(services))
	}
}
