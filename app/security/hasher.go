// Package security turns passwords into stored credentials and checks them.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"math/big"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultIterations = 600000
	DefaultSaltLength = 16

	saltChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

var digests = map[string]struct {
	new    func() hash.Hash
	keyLen int
}{
	"sha256": {sha256.New, sha256.Size},
	"sha512": {sha512.New, sha512.Size},
}

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted credential for the password.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the credential.
	// Malformed or unsupported credentials never match.
	Verify(password, credential string) bool
}

// PBKDF2Hasher implements PasswordHasher with PBKDF2-HMAC-SHA256.
// Credentials look like "pbkdf2:sha256:<iterations>$<salt>$<hex digest>".
type PBKDF2Hasher struct {
	Iterations int
	SaltLength int
}

// NewPBKDF2Hasher creates a hasher, falling back to defaults for non-positive arguments.
func NewPBKDF2Hasher(iterations, saltLength int) *PBKDF2Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if saltLength <= 0 {
		saltLength = DefaultSaltLength
	}
	return &PBKDF2Hasher{Iterations: iterations, SaltLength: saltLength}
}

// Hash produces a PBKDF2 credential of the password.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.Code("AUTH_EMPTY_PASSWORD").Wrap(ErrEmptyPassword)
	}

	salt, err := randomSalt(h.SaltLength)
	if err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	d := digests["sha256"]
	key := pbkdf2.Key([]byte(password), []byte(salt), h.Iterations, d.keyLen, d.new)

	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", h.Iterations, salt, hex.EncodeToString(key)), nil
}

// Verify checks if the password matches the credential.
func (h *PBKDF2Hasher) Verify(password, credential string) bool {
	parts := strings.Split(credential, "$")
	if len(parts) != 3 || parts[1] == "" {
		return false
	}

	method := strings.Split(parts[0], ":")
	if len(method) != 3 || method[0] != "pbkdf2" {
		return false
	}
	d, ok := digests[method[1]]
	if !ok {
		return false
	}
	iterations, err := strconv.Atoi(method[2])
	if err != nil || iterations <= 0 {
		return false
	}

	expected, err := hex.DecodeString(parts[2])
	if err != nil || len(expected) != d.keyLen {
		return false
	}

	computed := pbkdf2.Key([]byte(password), []byte(parts[1]), iterations, d.keyLen, d.new)

	// Constant-time comparison
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

func randomSalt(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(saltChars)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(saltChars[idx.Int64()])
	}
	return b.String(), nil
}
