package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"interview-api/internal/api/interfaces"
	"interview-api/internal/api/models"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health and stats endpoints
const Version = "1.0.0"

var startTime = time.Now()

// HealthCheck reports service health including a store ping
func HealthCheck(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		store := getStoreStatus(ctx, services)
		status := "healthy"
		code := http.StatusOK
		if store.Status != "healthy" {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, models.HealthCheckResponse{
			Status:    status,
			Timestamp: time.Now().Unix(),
			Version:   Version,
			Uptime:    int64(time.Since(startTime).Seconds()),
			Checks: map[string]models.HealthCheck{
				"store": store,
			},
		})
	}
}

// GetSystemStats returns runtime statistics
func GetSystemStats(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		stats := map[string]interface{}{
			"server": map[string]interface{}{
				"uptime":       time.Since(startTime).Seconds(),
				"version":      Version,
				"goroutines":   runtime.NumGoroutine(),
				"memory_alloc": bToMb(m.Alloc),
				"memory_total": bToMb(m.TotalAlloc),
				"memory_sys":   bToMb(m.Sys),
				"gc_runs":      m.NumGC,
			},
			"timestamp": time.Now().Unix(),
		}

		if candidates, err := services.CandidateRepository().List(c.Request.Context()); err == nil {
			stats["candidates"] = map[string]interface{}{
				"total": len(candidates),
			}
		}

		c.JSON(http.StatusOK, models.Success(c, "", stats))
	}
}

func getStoreStatus(ctx context.Context, services interfaces.Services) models.HealthCheck {
	start := time.Now()
	if err := services.CandidateRepository().Ping(ctx); err != nil {
		return models.HealthCheck{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}
	return models.HealthCheck{
		Status:  "healthy",
		Latency: time.Since(start).String(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
