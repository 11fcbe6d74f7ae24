package middleware

import (
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// IdentityFrom returns the caller set by the auth middleware, or the anonymous
// identity when the request carried no token.
func IdentityFrom(c *gin.Context) entity.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(entity.Identity); ok {
			return id
		}
	}
	return entity.Identity{}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": status, "message": message, "data": nil})
}
