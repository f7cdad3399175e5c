// Package middleware carries the cross-cutting gin middleware.
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qaforge/qatrack/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an id (honoring one supplied by the
// caller) and writes one access-log line per request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.GetLogger().Info(fmt.Sprintf("[%s] %s %s -> %d (%s)",
			id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start)))
	}
}
