package auth

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Memory: 64 << 10, Iterations: 3, Parallelism: 4, SaltLen: 16, KeyLen: 32}
}

var (
	errBadHash = errors.New("invalid password hash format")
	b64        = base64.RawStdEncoding
)

// argonDigest is a decoded argon2id$v=19$m=..,t=..,p=..$salt$key record.
type argonDigest struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func (a argonDigest) String() string {
	return fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version,
		a.params.Memory, a.params.Iterations, a.params.Parallelism,
		b64.EncodeToString(a.salt), b64.EncodeToString(a.key))
}

func (a argonDigest) derive(password string) []byte {
	return argon2.IDKey([]byte(password), a.salt, a.params.Iterations, a.params.Memory, a.params.Parallelism, uint32(len(a.key)))
}

func parseArgonDigest(s string) (argonDigest, error) {
	var a argonDigest
	fields := strings.Split(s, "$")
	if len(fields) != 5 || fields[0] != "argon2id" {
		return a, errBadHash
	}
	var version int
	if _, err := fmt.Sscanf(fields[1], "v=%d", &version); err != nil || version != argon2.Version {
		return a, fmt.Errorf("unsupported argon2 version %q", fields[1])
	}
	var par uint32
	p := &a.params
	if n, err := fmt.Sscanf(fields[2], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &par); err != nil || n != 3 {
		return a, fmt.Errorf("invalid argon2 parameters %q", fields[2])
	}
	if par == 0 || par > 255 || p.Iterations == 0 {
		return a, fmt.Errorf("invalid argon2 parameters %q", fields[2])
	}
	p.Parallelism = uint8(par)

	var err error
	if a.salt, err = b64.DecodeString(fields[3]); err != nil {
		return a, errors.New("invalid argon2 salt")
	}
	if a.key, err = b64.DecodeString(fields[4]); err != nil || len(a.key) < 16 {
		return a, errors.New("invalid argon2 hash")
	}
	p.SaltLen, p.KeyLen = uint32(len(a.salt)), uint32(len(a.key))
	return a, nil
}

// HashPassword derives a fresh argon2id digest with a random salt.
func HashPassword(password string, p Argon2Params) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	a := argonDigest{params: p, salt: make([]byte, p.SaltLen)}
	if _, err := rand.Read(a.salt); err != nil {
		return "", err
	}
	a.key = argon2.IDKey([]byte(password), a.salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLen)
	return a.String(), nil
}

// LegacyDigest is the unsalted hex SHA-1 digest that pre-existing user
// records were written with.
func LegacyDigest(password string) string {
	sum := sha1.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword accepts either stored form. Only a malformed argon2id
// record produces an error.
func VerifyPassword(password, stored string) (bool, error) {
	if password == "" || stored == "" {
		return false, nil
	}
	var got, want []byte
	if strings.HasPrefix(stored, "argon2id$") {
		a, err := parseArgonDigest(stored)
		if err != nil {
			return false, err
		}
		got, want = a.derive(password), a.key
	} else {
		got = []byte(LegacyDigest(password))
		want = []byte(strings.ToLower(strings.TrimSpace(stored)))
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
