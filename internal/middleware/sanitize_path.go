package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

var pathPolicy = bluemonday.StrictPolicy()

// SanitizePath strips markup from the request path and the query string before any handler sees them.
func SanitizePath() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.URL.Path = pathPolicy.Sanitize(c.Request.URL.Path)

		query := c.Request.URL.Query()
		for key, values := range query {
			for i, value := range values {
				values[i] = pathPolicy.Sanitize(value)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		c.Next()
	}
}
