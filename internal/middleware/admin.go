package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"profilehost/api/internal/security"
)

// RequireAdmin guards the provisioning surface with operator JWTs. The
// tenant/profile credential headers are not honored here.
func RequireAdmin(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			rejectUnauthorized(c)
			return
		}

		claims, err := security.ParseAdminToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
		if err != nil {
			rejectUnauthorized(c)
			return
		}

		c.Set("admin_name", claims.Name)
		c.Next()
	}
}
