package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"thelocals/utils"
)

// roleAuth validates the bearer token and requires the given role claim.
// The authenticated account ID is stored in the context as "accountID".
func roleAuth(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subject, tokenRole, err := utils.ExtractIdentityFromToken(tokenString)
		if err != nil || subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if tokenRole != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "wrong account type for this endpoint"})
			return
		}

		c.Set("accountID", subject)
		c.Set("role", tokenRole)
		c.Next()
	}
}

// ClientAuth guards client-facing endpoints.
func ClientAuth() gin.HandlerFunc { return roleAuth("client") }

// ProviderAuth guards provider-facing endpoints.
func ProviderAuth() gin.HandlerFunc { return roleAuth("provider") }

// AccountID returns the authenticated account set by the auth middleware.
func AccountID(c *gin.Context) string {
	return c.GetString("accountID")
}
