package middleware

import (
	"time"

	"chat-realtime/pkg/logger"

	"github.com/gin-gonic/gin"
)

// LogApi writes one structured line per request
func LogApi(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []interface{}{
			"client_ip", c.ClientIP(),
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", path,
			"user_agent", c.Request.UserAgent(),
			"latency", time.Since(start),
			"proto", c.Request.Proto,
		}
		if userID := UserID(c); userID != "" {
			fields = append(fields, "user_id", userID)
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, "error", errs)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("Request failed", fields...)
		case status >= 400:
			log.Warn("Request rejected", fields...)
		default:
			log.Info("Request handled", fields...)
		}
	}
}
