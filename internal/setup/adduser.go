// Package setup provisions user records directly in the SQLite catalog.
// There is no registration endpoint; accounts are created here.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filesmanager/internal/auth"
	"filesmanager/internal/db"
	"filesmanager/internal/validate"
)

// PasswordEnv is read when AddUserOptions.PasswordFromEnv is set.
const PasswordEnv = "FILESMANAGER_PASSWORD"

var ErrUserExists = errors.New("user already exists")

type AddUserOptions struct {
	DBPath          string
	Email           string
	Password        string
	PasswordFromEnv bool
	// Legacy stores a hex SHA-1 digest instead of Argon2id, for
	// interoperating with records imported from older deployments.
	Legacy bool

	Stdin  io.Reader
	Stderr io.Writer
	Getenv func(string) string
}

// AddUser creates one user and returns its id.
func AddUser(ctx context.Context, opt AddUserOptions) (int64, error) {
	if opt.DBPath == "" {
		return 0, errors.New("db path is required")
	}
	email := strings.TrimSpace(opt.Email)
	if err := validate.Email(email); err != nil {
		return 0, fmt.Errorf("%w: %q", err, opt.Email)
	}
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	if opt.Stderr == nil {
		opt.Stderr = os.Stderr
	}
	if opt.Getenv == nil {
		opt.Getenv = os.Getenv
	}
	if err := os.MkdirAll(filepath.Dir(opt.DBPath), 0o700); err != nil {
		return 0, err
	}

	d, err := db.Open(ctx, opt.DBPath)
	if err != nil {
		return 0, err
	}
	defer d.Close()
	_ = os.Chmod(opt.DBPath, 0o600)

	if _, ok, err := d.GetUserByEmail(ctx, email); err != nil {
		return 0, err
	} else if ok {
		return 0, fmt.Errorf("%w: %s", ErrUserExists, email)
	}

	pass, err := resolvePassword(opt)
	if err != nil {
		return 0, err
	}
	var digest string
	if opt.Legacy {
		digest = auth.LegacyDigest(pass)
	} else if digest, err = auth.HashPassword(pass, auth.DefaultArgon2Params()); err != nil {
		return 0, err
	}
	return d.CreateUser(ctx, email, digest)
}

func resolvePassword(opt AddUserOptions) (string, error) {
	if opt.Password != "" && opt.PasswordFromEnv {
		return "", errors.New("choose one of --password or --password-env")
	}
	if opt.PasswordFromEnv {
		v := strings.TrimSpace(opt.Getenv(PasswordEnv))
		if v == "" {
			return "", errors.New(PasswordEnv + " is empty")
		}
		return v, nil
	}
	if opt.Password != "" {
		v := strings.TrimSpace(opt.Password)
		if v == "" {
			return "", errors.New("password is empty")
		}
		return v, nil
	}
	return promptPassword("Password for new user", opt.Stdin, opt.Stderr)
}
