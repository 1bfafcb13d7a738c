package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token is expired")
	ErrTokenRevoked       = errors.New("token is revoked")
)

// User is an account holder. Username is the lower-cased email address
// used to sign in; PasswordHash is a bcrypt hash, or an unusable random
// placeholder for users provisioned through federated login.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Account is the one-to-one companion record of a User, created in the
// same transaction.
type Account struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

// CreateUserRequest carries the data needed to create a user with its
// linked account.
type CreateUserRequest struct {
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
}

// UpdateUserRequest is a partial profile update; nil fields are left
// untouched.
type UpdateUserRequest struct {
	Username     *string
	FirstName    *string
	LastName     *string
	PasswordHash *string
}
