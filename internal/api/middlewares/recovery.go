package middlewares

import (
	"fmt"

	"interview-api/internal/api/models"
	"interview-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery middleware turns a panic into a 500 envelope
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.StructuredError(fmt.Errorf("panic: %v", recovered), map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		models.Abort(c, models.ErrInternal())
	})
}
