package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/fantasteak-pos/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"ip":      c.ClientIP(),
			"path":    path,
		})
		if role, ok := c.Get(ContextRole); ok {
			entry = entry.WithField("role", role)
		}
		if c.Writer.Status() >= 500 {
			utils.ErrorLogger.WithFields(entry.Data).Error("Request failed")
			return
		}
		entry.Info("Request")
	}
}
