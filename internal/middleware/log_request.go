package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"graveyard-manager/internal/utils"
)

func LogRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		utils.LogMessageWithFields(c, "info", "Request received: "+c.Request.Method+" "+c.Request.URL.Path)

		c.Next()

		utils.LogMessageWithFields(c, "debug", "Request finished with status "+strconv.Itoa(c.Writer.Status())+" after "+time.Since(start).String())
	}
}
