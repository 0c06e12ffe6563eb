package middleware

import (
	"bottega/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired gates the operator surface. Alias over RequireRole so the
// router reads as intent, not as a role list.
func AdminRequired() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
