package middlewares

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders suits a console served on the local network over plain
// HTTP, so no HSTS.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'self'; connect-src 'self' ws: wss:; img-src 'self' data:")
		c.Header("Referrer-Policy", "no-referrer")

		c.Next()
	}
}
