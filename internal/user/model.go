package user

import (
	"errors"
	"time"
)

var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordTooLong    = errors.New("password is longer than 72 bytes")
)

// MaxPasswordBytes is the bcrypt input limit.
const MaxPasswordBytes = 72

// User is a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
