// Package auth verifies credentials and manages login sessions.
package auth

import (
	"context"
	"errors"
	"fmt"

	"filesmanager/internal/db"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when a request carries no usable token.
	ErrUnauthorized = errors.New("unauthorized")
)

// UserLookup is the slice of the database the directory needs.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*db.User, bool, error)
}

// Directory verifies login credentials against stored user records.
type Directory struct {
	users UserLookup
}

func NewDirectory(users UserLookup) *Directory {
	return &Directory{users: users}
}

// Verify returns the user id for a matching (email, password) pair.
func (d *Directory) Verify(ctx context.Context, email, password string) (int64, error) {
	if email == "" || password == "" {
		return 0, ErrInvalidCredentials
	}
	u, ok, err := d.users.GetUserByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return 0, ErrInvalidCredentials
	}
	match, err := VerifyPassword(password, u.Password)
	if err != nil || !match {
		return 0, ErrInvalidCredentials
	}
	return u.ID, nil
}
