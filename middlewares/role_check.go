package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/fantasteak-pos/services"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

// RequireRole lets the request through only for the listed screens.
func RequireRole(roles ...services.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFrom(c)
		if !ok {
			utils.RespondMessage(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		utils.RespondMessage(c, http.StatusForbidden, "akses "+string(role)+" tidak diizinkan")
		c.Abort()
	}
}

// RoleFrom returns the role set by SessionAuth.
func RoleFrom(c *gin.Context) (services.Role, bool) {
	v, ok := c.Get(ContextRole)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || !services.Role(s).Valid() {
		return "", false
	}
	return services.Role(s), true
}
