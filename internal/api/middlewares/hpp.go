package middlewares

import (
	"github.com/gin-gonic/gin"
)

// PollutedQueryKey holds the repeated query parameters HPP collapsed
const PollutedQueryKey = "query_polluted"

// HPP middleware guards against HTTP parameter pollution: when a query key is
// repeated only its last value is kept. The discarded lists are kept in the
// context for handlers that really want them.
func HPP() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.RawQuery == "" {
			c.Next()
			return
		}

		query := c.Request.URL.Query()
		polluted := make(map[string][]string)
		for key, values := range query {
			if len(values) > 1 {
				polluted[key] = values
				query[key] = values[len(values)-1:]
			}
		}

		if len(polluted) > 0 {
			c.Set(PollutedQueryKey, polluted)
			c.Request.URL.RawQuery = query.Encode()
		}

		c.Next()
	}
}
