package models

import "siap/pkg/roles"

type User struct {
	ID           int        `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Fullname     string     `json:"fullname" db:"fullname"`
	Email        *string    `json:"email,omitempty" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         roles.Role `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	ExternalID   *string    `json:"external_id,omitempty" db:"external_id"`
	TokenVersion int        `json:"-" db:"token_version"`
}

type CreateUserRequest struct {
	Username string     `json:"username" binding:"required"`
	Password string     `json:"password" binding:"required,min=8"`
	Fullname string     `json:"fullname"`
	Email    *string    `json:"email"`
	Role     roles.Role `json:"role" binding:"required"`
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID int
	Role   roles.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == roles.Admin
}

type UpdateUserRequest struct {
	Fullname *string     `json:"fullname"`
	Email    *string     `json:"email"`
	Password *string     `json:"password"`
	Role     *roles.Role `json:"role"`
	IsActive *bool       `json:"is_active"`
}

// UserChanges holds the columns an update actually modifies.
type UserChanges struct {
	Fullname     *string
	Email        *string
	PasswordHash *string
	Role         *roles.Role
	IsActive     *bool
}

func (c *UserChanges) HasChanges() bool {
	return c.Fullname != nil || c.Email != nil || c.PasswordHash != nil || c.Role != nil || c.IsActive != nil
}

// RevokesSessions is true when tokens issued before the change must stop working.
func (c *UserChanges) RevokesSessions() bool {
	return c.PasswordHash != nil || c.Role != nil || (c.IsActive != nil && !*c.IsActive)
}
