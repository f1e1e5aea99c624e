// Package validate contains simple input validation helpers.
package validate

import (
	"errors"
	"net/mail"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Email checks that s is a bare address (no display name) of sane length.
func Email(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 {
		return errors.New("invalid email")
	}
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s {
		return errors.New("invalid email")
	}
	return nil
}

// EntryName checks a catalog entry name. Names are labels, not paths, but
// control characters and oversized values are still refused.
func EntryName(s string) error {
	if s == "" {
		return errors.New("name is required")
	}
	if len(s) > 255 || !utf8.ValidString(s) {
		return errors.New("invalid name")
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return errors.New("invalid name")
		}
	}
	return nil
}

// RootPath validates and normalizes a storage root directory.
func RootPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.New("root path is required")
	}
	clean := filepath.Clean(p)
	if !filepath.IsAbs(clean) {
		return "", errors.New("root path must be absolute")
	}
	// Reject volume root ("/", "C:\\", etc.).
	if filepath.Dir(clean) == clean {
		return "", errors.New("root path cannot be filesystem root")
	}
	return strings.TrimRight(clean, string(filepath.Separator)), nil
}
