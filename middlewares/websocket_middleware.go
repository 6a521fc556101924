package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/fantasteak-pos/utils"
)

// WebSocketAuthMiddleware reads the session token from the query string,
// since browsers cannot set headers on a websocket handshake.
func WebSocketAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := utils.ParseSessionToken(secret, token)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
