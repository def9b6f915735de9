package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds the API enforces on create/update. The upper
// bound is bcrypt's 72-byte input limit; without the explicit check,
// GenerateFromPassword fails with an opaque error.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// VerifyPassword compares a plaintext password with a stored hash. A
// malformed digest counts as a verification failure, not a fault.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
