package middleware

import (
	"net/http"
	"strings"

	"bottega/config"
	"bottega/internal/auth"

	"github.com/gin-gonic/gin"
)

const claimsKey = "auth_claims"

// AuthRequired verifies the bearer token and stashes the typed claims for the
// accessors below. Handlers never touch the raw context keys.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole gates a route to the listed roles. Must run after AuthRequired.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

func claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	cl, _ := v.(*auth.Claims)
	return cl
}

// GetUserID returns the authenticated user's id, 0 when unauthenticated.
func GetUserID(c *gin.Context) uint {
	if cl := claims(c); cl != nil {
		return cl.UserID
	}
	return 0
}

// GetRole returns the authenticated user's role, empty when unauthenticated.
func GetRole(c *gin.Context) string {
	if cl := claims(c); cl != nil {
		return cl.Role
	}
	return ""
}
