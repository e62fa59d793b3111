package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	active  bool
	version int
}

func (s stubSessions) GetSessionState(ctx context.Context, userID int) (bool, int, error) {
	return s.active, s.version, nil
}

func TestGenerateAndParseJWT(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)

	token, err := tokens.GenerateJWT(models.User{ID: 12, Username: "ana", Role: roles.Manager, TokenVersion: 3})
	require.NoError(t, err)

	claims, err := tokens.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, 12, claims.UserID)
	assert.Equal(t, roles.Manager, claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
}

func TestParseJWTRejectsForeignSecret(t *testing.T) {
	token, err := NewTokenManager("one", time.Hour).GenerateJWT(models.User{ID: 1, Role: roles.Admin})
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).ParseJWT(token)
	assert.Error(t, err)
}

func TestJWTMiddlewareSessionState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := NewTokenManager("secret", time.Hour)
	token, err := tokens.GenerateJWT(models.User{ID: 5, Role: roles.Employee, TokenVersion: 1})
	require.NoError(t, err)

	tests := []struct {
		name     string
		sessions stubSessions
		expected int
	}{
		{"active session", stubSessions{active: true, version: 1}, http.StatusOK},
		{"deactivated user", stubSessions{active: false, version: 1}, http.StatusUnauthorized},
		{"revoked token version", stubSessions{active: true, version: 2}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/me", tokens.JWTMiddleware(tt.sessions), func(c *gin.Context) {
				actor, err := ActorFromContext(c)
				require.NoError(t, err)
				c.JSON(http.StatusOK, gin.H{"id": actor.UserID})
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestAuthorize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		role     roles.Role
		required roles.Role
		expected int
	}{
		{"admin passes manager gate", roles.Admin, roles.Manager, http.StatusOK},
		{"employee blocked at manager gate", roles.Employee, roles.Manager, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/x", func(c *gin.Context) {
				SetActor(c, models.Actor{UserID: 1, Role: tt.role})
			}, Authorize(tt.required), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/x", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}
