package users

import (
	"errors"
	"time"
)

// User roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is an operator account. PasswordHash never leaves the package
// boundary in responses.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Input carries the writable account fields. Password is optional on
// update and required on create.
type Input struct {
	Username string
	Password string
	Role     string
}

var (
	ErrUsernameTaken   = errors.New("users: username already in use")
	ErrBadRole         = errors.New("users: role must be admin or staff")
	ErrWeakPassword    = errors.New("users: password must be at least 8 characters")
	ErrMissingUsername = errors.New("users: username is required")
	ErrLastAdmin       = errors.New("users: cannot remove the last admin")
	ErrSelfDelete      = errors.New("users: cannot delete your own account")
)
