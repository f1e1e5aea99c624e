package auth

import (
	"context"
	"errors"
	"testing"

	"filesmanager/internal/db"
)

type fakeUsers map[string]*db.User

func (f fakeUsers) GetUserByEmail(_ context.Context, email string) (*db.User, bool, error) {
	u, ok := f[email]
	return u, ok, nil
}

// TestDirectoryVerify hides the difference between unknown user and bad password.
func TestDirectoryVerify(t *testing.T) {
	users := fakeUsers{
		"user@example.com": {ID: 3, Email: "user@example.com", Password: LegacyDigest("secret")},
	}
	d := NewDirectory(users)
	ctx := context.Background()

	id, err := d.Verify(ctx, "user@example.com", "secret")
	if err != nil || id != 3 {
		t.Fatalf("Verify: id=%d err=%v", id, err)
	}

	_, errWrong := d.Verify(ctx, "user@example.com", "nope")
	_, errMissing := d.Verify(ctx, "ghost@example.com", "secret")
	if !errors.Is(errWrong, ErrInvalidCredentials) || !errors.Is(errMissing, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v / %v", errWrong, errMissing)
	}
	if errWrong.Error() != errMissing.Error() {
		t.Fatalf("failures must be indistinguishable")
	}
}
