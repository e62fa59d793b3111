package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/gin-gonic/gin"
)

const (
	contextUserID = "userID"
	contextRole   = "role"
)

// SessionChecker reports whether tokens issued to a user are still honoured.
type SessionChecker interface {
	GetSessionState(ctx context.Context, userID int) (active bool, tokenVersion int, err error)
}

// JWTMiddleware validates JWT, checks that the session was not revoked and extracts claims.
func (m *TokenManager) JWTMiddleware(sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := m.ParseJWT(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		active, version, err := sessions.GetSessionState(c.Request.Context(), claims.UserID)
		if err != nil || !active || version != claims.TokenVersion {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session revoked"})
			c.Abort()
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Set(contextRole, claims.Role)
		c.Next()
	}
}

// Authorize ensures the user has the required role.
func Authorize(requiredRole roles.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(contextRole)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient permissions"})
			c.Abort()
			return
		}
		userRole, ok := role.(roles.Role)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid role format"})
			c.Abort()
			return
		}

		if !userRole.IsValid() || !userRole.HasPermission(requiredRole) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func ActorFromContext(c *gin.Context) (models.Actor, error) {
	userID, ok := c.Get(contextUserID)
	if !ok {
		return models.Actor{}, fmt.Errorf("no authenticated user in context")
	}
	id, ok := userID.(int)
	if !ok {
		return models.Actor{}, fmt.Errorf("userID has unexpected type %T", userID)
	}

	role, _ := c.Get(contextRole)
	userRole, _ := role.(roles.Role)

	return models.Actor{UserID: id, Role: userRole}, nil
}

// SetActor stores the actor on the context the way JWTMiddleware does.
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(contextUserID, actor.UserID)
	c.Set(contextRole, actor.Role)
}
