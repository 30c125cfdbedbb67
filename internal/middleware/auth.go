package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/teamsync/internal/apperr"
	"github.com/lalith-99/teamsync/internal/auth"
)

// ContextKeyOperator holds the verified username from the bearer token.
const ContextKeyOperator = "operator"

// AuthMiddleware validates "Authorization: Bearer <token>" and stores the
// token's username for handlers. A missing or bad token aborts with 401.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		claims, err := auth.ParseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyOperator, claims.Username)
		c.Next()
	}
}

// GetOperator returns the token username, or "" when the request was not
// authenticated.
func GetOperator(c *gin.Context) string {
	val, exists := c.Get(ContextKeyOperator)
	if !exists {
		return ""
	}
	name, ok := val.(string)
	if !ok {
		return ""
	}
	return name
}

// ResolveOperator picks the acting user for a request. With a verified
// token the token wins, and a different supplied operator_user is refused.
// Without one the supplied value is used as is.
func ResolveOperator(c *gin.Context, supplied string) (string, error) {
	supplied = strings.TrimSpace(supplied)
	verified := GetOperator(c)
	if verified == "" {
		return supplied, nil
	}
	if supplied != "" && supplied != verified {
		return "", apperr.PermissionDenied("operator_user: %s does not match the authenticated user", supplied)
	}
	return verified, nil
}
