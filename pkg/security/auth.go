package security

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type UserFinder interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Claims are the fields carried by every issued token.
type Claims struct {
	UserID       int
	Role         roles.Role
	Username     string
	TokenVersion int
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func AuthenticateUser(ctx context.Context, username, password string, finder UserFinder) (*models.User, error) {
	user, err := finder.GetUserByUsername(ctx, username)
	if err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (m *TokenManager) GenerateJWT(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"userID":   strconv.Itoa(user.ID),
		"role":     string(user.Role),
		"username": user.Username,
		"ver":      user.TokenVersion,
		"exp":      time.Now().Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) ParseJWT(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}

	rawID, ok := mapClaims["userID"].(string)
	if !ok {
		return nil, fmt.Errorf("userID is not a string")
	}
	userID, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, fmt.Errorf("userID is not numeric: %w", err)
	}

	role, _ := mapClaims["role"].(string)
	username, _ := mapClaims["username"].(string)
	// JSON numbers decode as float64
	version, _ := mapClaims["ver"].(float64)

	return &Claims{
		UserID:       userID,
		Role:         roles.Role(role),
		Username:     username,
		TokenVersion: int(version),
	}, nil
}
