package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/service"
)

const userContextKey = "auth.user"

// Auth validates the bearer token and stashes the resolved user on the
// request context. Requests without a valid token are rejected before any
// handler runs.
func Auth(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		user, err := users.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireCapability gates a route group on the role capability table.
func RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !service.HasCapability(CurrentUser(c), capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, nil when the route skipped
// Auth.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}
