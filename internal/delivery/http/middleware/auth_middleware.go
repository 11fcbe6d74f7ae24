package middleware

import (
	"net/http"
	"strings"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/gin-gonic/gin"
)

// TokenValidator turns a bearer token into the caller's identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (entity.Identity, error)
}

func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", true
	}
	return parts[1], true
}

func setIdentity(c *gin.Context, id entity.Identity) {
	c.Set(identityKey, id)
	c.Set("userID", id.UserID)
	c.Set("role", string(id.Role))
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearer(c)
		if !present {
			abort(c, http.StatusUnauthorized, "authorization header required")
			return
		}
		if token == "" {
			abort(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}
		id, err := tokens.ValidateToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through but still rejects a bad token,
// so a client never silently loses its identity.
func OptionalAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearer(c)
		if !present {
			c.Next()
			return
		}
		id, err := tokens.ValidateToken(token)
		if token == "" || err != nil {
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}
