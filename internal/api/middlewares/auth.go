package middlewares

import (
	"errors"

	"interview-api/internal/api/interfaces"
	"interview-api/internal/api/models"
	"interview-api/internal/auth"

	"github.com/gin-gonic/gin"
)

// UserNameKey is the gin context key holding the verified identity
const UserNameKey = "user_name"

// AuthRequired middleware verifies the identity token carried in the
// Authorization header. A bare token and a "Bearer <token>" value are both
// accepted. No token answers 403, a bad one answers 401.
func AuthRequired(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := services.GetLogger()

		userName, err := services.AuthService().Verify(c.GetHeader("Authorization"))
		if err != nil {
			reason := "invalid"
			apiErr := models.ErrTokenInvalid()
			if errors.Is(err, auth.ErrMissingCredential) {
				reason = "missing"
				apiErr = models.ErrTokenMissing()
			}

			if m := services.GetMetrics(); m != nil {
				m.TokenRejections.WithLabelValues(reason).Inc()
			}
			log.SecurityLogger("token_rejected", "", reason+": "+c.Request.Method+" "+c.Request.URL.Path)

			models.Abort(c, apiErr)
			return
		}

		c.Set(UserNameKey, userName)
		c.Request = c.Request.WithContext(auth.ContextWithIdentity(c.Request.Context(), userName))

		c.Next()
	}
}

// CurrentUser returns the identity set by AuthRequired
func CurrentUser(c *gin.Context) (string, bool) {
	userName := c.GetString(UserNameKey)
	return userName, userName != ""
}
