package middleware

import (
	"net/http"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/gin-gonic/gin"
)

// RoleMiddleware admits callers holding one of allowedRoles. ADMIN is always
// admitted. It must run after AuthMiddleware.
func RoleMiddleware(allowedRoles ...entity.UserRole) gin.HandlerFunc {
	roleSet := make(map[entity.UserRole]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		id := IdentityFrom(c)
		if id.Anonymous() {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if id.Role != entity.RoleAdmin && !roleSet[id.Role] {
			abort(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}

// OfficialsOnly admits group leaders, ward officials and admins.
func OfficialsOnly() gin.HandlerFunc {
	return RoleMiddleware(entity.RoleGroupLeader, entity.RoleWardOfficial, entity.RoleAdmin)
}
