package models

import "time"

// User represents a user owned by the user service.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username" binding:"required"`
	Email     string    `json:"email" db:"email" binding:"required,email"`
	Roles     []string  `json:"roles" db:"roles"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Username string   `json:"username" binding:"required" example:"johndoe"`
	Email    string   `json:"email" binding:"required,email" example:"john@example.com"`
	Roles    []string `json:"roles,omitempty" example:"ROLE_USER"`
}

// UpdateUserRequest is the request body for updating a user. Empty fields are
// left unchanged.
type UpdateUserRequest struct {
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty" binding:"omitempty,email"`
	Roles    []string `json:"roles,omitempty"`
}
