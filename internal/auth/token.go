package auth

import "github.com/google/uuid"

// NewToken returns a fresh random (v4) session token.
func NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
