package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"graveyard-manager/internal/utils"
)

// InjectTrace tags every request with a fresh trace id, echoed in the X-Trace-Id header.
// Contexts derived from the request, e.g. transaction contexts, carry the id as well.
func InjectTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := utils.GenerateTraceId()
		c.Set(utils.TraceIdKey.String(), traceId)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), utils.TraceIdKey, traceId))
		c.Header("X-Trace-Id", traceId)
		c.Next()
	}
}
