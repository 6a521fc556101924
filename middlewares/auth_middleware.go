package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/fantasteak-pos/utils"
)

// ContextRole is the gin context key holding the unlocked screen role.
const ContextRole = "role"

// SessionAuth accepts a session token from "Authorization: Bearer <token>"
// or the token query parameter.
func SessionAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			utils.RespondMessage(c, http.StatusUnauthorized, "token tidak ditemukan")
			c.Abort()
			return
		}

		claims, err := utils.ParseSessionToken(secret, token)
		if err != nil {
			utils.RespondMessage(c, http.StatusUnauthorized, "sesi tidak valid atau kadaluarsa")
			c.Abort()
			return
		}

		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
