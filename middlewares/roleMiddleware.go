package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AllowRoles rejects callers whose role is not in the given set.
// Must run after AuthMiddleware.
func AllowRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		role, _ := roleVal.(string)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to perform this action"})
		c.Abort()
	}
}
