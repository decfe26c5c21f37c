package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"selfiebooth/internal/config"
	"selfiebooth/internal/security"
)

const AdminCookieName = "admin_session"

// AdminAuth gates the admin console behind the JWT session cookie issued by
// the login handler. Every admin route goes through this gate.
func AdminAuth(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AdminCookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin_login_required"})
			return
		}

		claims, err := security.ParseAdminToken(token, cfg.Admin.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_admin_session"})
			return
		}

		c.Set("admin_claims", *claims)
		c.Next()
	}
}
