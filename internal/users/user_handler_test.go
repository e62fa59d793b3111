package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	custom_error "siap/pkg/errors"
	"siap/pkg/models"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) PersistUser(ctx context.Context, req models.CreateUserRequest, hashedPassword []byte) (int, error) {
	args := m.Called(req, hashedPassword)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) GetUser(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, id int, changes *models.UserChanges) error {
	args := m.Called(id, changes)
	return args.Error(0)
}

func setupTestContext(actor models.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	security.SetActor(c, actor)
	return c, w
}

var admin = models.Actor{UserID: 1, Role: roles.Admin}

func TestRegisterUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	handler := NewHandler(mockRepo, zap.NewNop())

	tests := []struct {
		name           string
		payload        models.CreateUserRequest
		setupMock      func()
		expectedStatus int
	}{
		{
			name: "successful registration",
			payload: models.CreateUserRequest{
				Username: "testuser",
				Password: "password123",
				Fullname: "Test User",
				Role:     roles.Employee,
			},
			setupMock: func() {
				mockRepo.On("PersistUser", mock.Anything, mock.Anything).Return(7, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "duplicate username",
			payload: models.CreateUserRequest{
				Username: "testuser",
				Password: "password123",
				Role:     roles.Employee,
			},
			setupMock: func() {
				mockRepo.On("PersistUser", mock.Anything, mock.Anything).
					Return(0, custom_error.WrapDBError("duplicate username", "23505"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "repository error",
			payload: models.CreateUserRequest{
				Username: "testuser",
				Password: "password123",
				Role:     roles.Manager,
			},
			setupMock: func() {
				mockRepo.On("PersistUser", mock.Anything, mock.Anything).Return(0, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "unknown role",
			payload: models.CreateUserRequest{
				Username: "testuser",
				Password: "password123",
				Role:     "superuser",
			},
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "short password",
			payload: models.CreateUserRequest{
				Username: "testuser",
				Password: "short",
				Role:     roles.Employee,
			},
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			tt.setupMock()
			c, w := setupTestContext(admin)

			body, _ := json.Marshal(tt.payload)
			c.Request = httptest.NewRequest("POST", "/users", bytes.NewBuffer(body))

			handler.RegisterUser(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	handler := NewHandler(mockRepo, zap.NewNop())

	tests := []struct {
		name           string
		userID         string
		payload        models.UpdateUserRequest
		setupMock      func()
		expectedStatus int
	}{
		{
			name:   "promote to manager",
			userID: "1",
			payload: models.UpdateUserRequest{
				Role: rolesPtr(roles.Manager),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 1).Return(&models.User{ID: 1, Username: "testuser", Role: roles.Employee}, nil).Once()
				mockRepo.On("UpdateUser", 1, mock.MatchedBy(func(changes *models.UserChanges) bool {
					return changes.Role != nil && *changes.Role == roles.Manager && changes.RevokesSessions()
				})).Return(nil)
				mockRepo.On("GetUser", 1).Return(&models.User{ID: 1, Username: "testuser", Role: roles.Manager}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "deactivate",
			userID: "1",
			payload: models.UpdateUserRequest{
				IsActive: boolPtr(false),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 1).Return(&models.User{ID: 1, Username: "testuser", Role: roles.Employee, IsActive: true}, nil).Once()
				mockRepo.On("UpdateUser", 1, mock.MatchedBy(func(changes *models.UserChanges) bool {
					return changes.IsActive != nil && !*changes.IsActive && changes.RevokesSessions()
				})).Return(nil)
				mockRepo.On("GetUser", 1).Return(&models.User{ID: 1, Username: "testuser", Role: roles.Employee}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "nothing changes",
			userID: "1",
			payload: models.UpdateUserRequest{
				Role: rolesPtr(roles.Employee),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 1).Return(&models.User{ID: 1, Username: "testuser", Role: roles.Employee}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "user not found",
			userID: "999",
			payload: models.UpdateUserRequest{
				Fullname: stringPtr("Updated Name"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 999).Return(nil, custom_error.NewNotFound("user", 999))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "password too short",
			userID: "1",
			payload: models.UpdateUserRequest{
				Password: stringPtr("123"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 1).Return(&models.User{ID: 1, Username: "testuser", Role: roles.Employee}, nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "repository error on update",
			userID: "1",
			payload: models.UpdateUserRequest{
				Password: stringPtr("newPassword123"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 1).Return(&models.User{ID: 1, Username: "testuser", Role: roles.Employee}, nil)
				mockRepo.On("UpdateUser", 1, mock.MatchedBy(func(changes *models.UserChanges) bool {
					return changes.PasswordHash != nil
				})).Return(errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			tt.setupMock()
			c, w := setupTestContext(admin)

			body, _ := json.Marshal(tt.payload)
			c.Request = httptest.NewRequest("PATCH", "/users/"+tt.userID, bytes.NewBuffer(body))
			c.Params = []gin.Param{{Key: "id", Value: tt.userID}}

			handler.UpdateUser(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGetUserVisibility(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	handler := NewHandler(mockRepo, zap.NewNop())
	mockRepo.On("GetUser", 5).Return(&models.User{ID: 5, Username: "self"}, nil)

	c, w := setupTestContext(models.Actor{UserID: 5, Role: roles.Employee})
	c.Request = httptest.NewRequest("GET", "/users/5", nil)
	c.Params = []gin.Param{{Key: "id", Value: "5"}}
	handler.GetUser(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = setupTestContext(models.Actor{UserID: 5, Role: roles.Employee})
	c.Request = httptest.NewRequest("GET", "/users/6", nil)
	c.Params = []gin.Param{{Key: "id", Value: "6"}}
	handler.GetUser(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	mockRepo.AssertNotCalled(t, "GetUser", 6)
}

func TestGetUserList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	handler := NewHandler(mockRepo, zap.NewNop())

	tests := []struct {
		name           string
		setupMock      func()
		expectedStatus int
	}{
		{
			name: "successful list retrieval",
			setupMock: func() {
				mockRepo.On("GetUsers").Return([]models.User{
					{ID: 1, Username: "user1"},
					{ID: 2, Username: "user2"},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "repository error",
			setupMock: func() {
				mockRepo.On("GetUsers").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			tt.setupMock()
			c, w := setupTestContext(admin)
			c.Request = httptest.NewRequest("GET", "/users", nil)

			handler.GetUserList(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}

func stringPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func rolesPtr(r roles.Role) *roles.Role {
	return &r
}
