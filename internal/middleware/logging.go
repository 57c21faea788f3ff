package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestLogger пишет одну запись лога на каждый обработанный HTTP-запрос.
func RequestLogger(logger *log.Entry) gin.HandlerFunc {
	if logger == nil {
		logger = log.WithField("component", "http")
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.WithFields(log.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request handled")
	}
}
