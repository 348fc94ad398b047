package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when the username or password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator checks the configured operator account.
type Authenticator struct {
	username     string
	passwordHash []byte
}

// NewAuthenticator builds an Authenticator. passwordHash is a bcrypt hash and
// wins over password; a plain password is hashed once here.
func NewAuthenticator(username, password, passwordHash string) (*Authenticator, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	var hash []byte
	switch {
	case passwordHash != "":
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("invalid password hash: %w", err)
		}
		hash = []byte(passwordHash)
	case password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = h
	default:
		return nil, fmt.Errorf("password is required")
	}

	return &Authenticator{username: username, passwordHash: hash}, nil
}

// Check returns ErrInvalidCredentials unless both username and password match.
func (a *Authenticator) Check(username, password string) error {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil

	if !(usernameMatch && passwordMatch) {
		return ErrInvalidCredentials
	}
	return nil
}
