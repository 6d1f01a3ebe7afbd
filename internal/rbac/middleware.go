package rbac

import (
	"net/http"

	"garageleadly/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireContractor enforces that the caller acts for a contractor account.
// Contractor endpoints read every row through this id; staff tokens are rejected.
func RequireContractor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := auth.IdentityFrom(c.Request.Context())
		if id.Role != RoleContractor {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "contractor account required"})
			return
		}
		if id.ContractorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "contractor_id required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// super_admin bypasses all checks.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}
		if IsSuperAdmin(role) {
			c.Next()
			return
		}
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
