package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/edu-content/pkg/logger"
)

// Logger returns a middleware that logs HTTP requests
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}

		reqLog := logger.FromContext(c.Request.Context(), log)
		fields := []interface{}{
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"status", statusCode,
			"latency", latency.String(),
			"user_agent", c.Request.UserAgent(),
		}

		var err error
		if last := c.Errors.Last(); last != nil {
			err = last.Err
		}

		// Log based on status code
		switch {
		case statusCode >= 500:
			reqLog.Error(err, "Server error", fields...)
		case statusCode >= 400:
			if err != nil {
				fields = append(fields, "error", err.Error())
			}
			reqLog.Warn("Client error", fields...)
		default:
			reqLog.Info("Request processed", fields...)
		}
	}
}
