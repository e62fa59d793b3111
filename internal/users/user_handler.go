package users

import (
	"net/http"
	"strings"

	"siap/internal/core/response"
	"siap/pkg/models"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type UsersHandler struct {
	Repository UserRepository
	logger     *zap.Logger
}

func NewHandler(r UserRepository, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		Repository: r,
		logger:     logger,
	}
}

func (h *UsersHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/users", security.Authorize(roles.Admin), h.RegisterUser)
	router.PATCH("/users/:id", security.Authorize(roles.Admin), h.UpdateUser)
	router.GET("/users/:id", security.Authorize(roles.Employee), h.GetUser)
	router.GET("/users", security.Authorize(roles.Manager), h.GetUserList)
}

func (h *UsersHandler) RegisterUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if !req.Role.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role", "details": string(req.Role)})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	id, err := h.Repository.PersistUser(c.Request.Context(), req, hashedPassword)
	if err != nil {
		response.Error(c, "Failed to create user", err)
		return
	}

	h.logger.Info("User registered", zap.Int("user_id", id), zap.String("username", req.Username), zap.String("role", string(req.Role)))
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "id": id})
}

func (h *UsersHandler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	userID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	user, err := h.Repository.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, "Unable to find user", err)
		return
	}

	changes := &models.UserChanges{}

	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < minPasswordLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters long"})
			return
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		passwordHash := string(hashedPassword)
		changes.PasswordHash = &passwordHash
	}

	if req.Role != nil && *req.Role != user.Role {
		if !req.Role.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role", "details": string(*req.Role)})
			return
		}
		changes.Role = req.Role
	}

	if req.Fullname != nil && strings.TrimSpace(*req.Fullname) != user.Fullname {
		fullname := strings.TrimSpace(*req.Fullname)
		changes.Fullname = &fullname
	}
	if req.Email != nil {
		changes.Email = req.Email
	}
	if req.IsActive != nil && *req.IsActive != user.IsActive {
		changes.IsActive = req.IsActive
	}

	if !changes.HasChanges() {
		c.JSON(http.StatusOK, user)
		return
	}

	if err := h.Repository.UpdateUser(c.Request.Context(), userID, changes); err != nil {
		response.Error(c, "Failed to update user", err)
		return
	}
	if changes.RevokesSessions() {
		h.logger.Info("User sessions revoked", zap.Int("user_id", userID))
	}

	updatedUser, err := h.Repository.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, "Failed to get updated user", err)
		return
	}

	c.JSON(http.StatusOK, updatedUser)
}

func (h *UsersHandler) GetUser(c *gin.Context) {
	userID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	if !h.isAllowed(c, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "details": "You are not allowed to access this resource"})
		return
	}

	user, err := h.Repository.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, "Unable to find user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UsersHandler) GetUserList(c *gin.Context) {
	users, err := h.Repository.GetUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not obtain list of users", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, users)
}

// isAllowed lets users read themselves; managers read anyone.
func (h *UsersHandler) isAllowed(c *gin.Context, userID int) bool {
	actor, err := security.ActorFromContext(c)
	if err != nil || actor.UserID == 0 {
		return false
	}
	return actor.UserID == userID || actor.Role.HasPermission(roles.Manager)
}
