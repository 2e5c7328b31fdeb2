package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Low iteration count keeps the suite fast; the format is the same.
func testHasher() *PBKDF2Hasher {
	return NewPBKDF2Hasher(1000, 8)
}

func TestPBKDF2HasherHash(t *testing.T) {
	h := testHasher()

	credential, err := h.Hash("s3cret")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(credential, "pbkdf2:sha256:1000$"))
	parts := strings.Split(credential, "$")
	require.Len(t, parts, 3)
	assert.Len(t, parts[1], 8)
	assert.Len(t, parts[2], 64)
	assert.NotContains(t, credential, "s3cret")
}

func TestPBKDF2HasherSaltsDiffer(t *testing.T) {
	h := testHasher()

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same", a))
	assert.True(t, h.Verify("same", b))
}

func TestPBKDF2HasherRoundTrip(t *testing.T) {
	h := testHasher()
	passwords := []string{"a", "password", "pässwörd", "with spaces and $ signs", strings.Repeat("x", 200)}

	for _, p := range passwords {
		credential, err := h.Hash(p)
		require.NoError(t, err)
		assert.True(t, h.Verify(p, credential), "password %q should verify", p)

		for _, q := range passwords {
			if q != p {
				assert.False(t, h.Verify(q, credential), "password %q must not verify against hash of %q", q, p)
			}
		}
	}
}

func TestPBKDF2HasherEmptyPassword(t *testing.T) {
	_, err := testHasher().Hash("")
	assert.True(t, errors.Is(err, ErrEmptyPassword))
}

func TestPBKDF2HasherVerifyMalformed(t *testing.T) {
	h := testHasher()
	good, err := h.Hash("pw")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	tests := []struct {
		name       string
		credential string
	}{
		{"empty", ""},
		{"plaintext", "pw"},
		{"bcrypt", "$2a$10$abcdefghijklmnopqrstuv"},
		{"unknown digest", "pbkdf2:md5:1000$" + parts[1] + "$" + parts[2]},
		{"non numeric iterations", "pbkdf2:sha256:abc$" + parts[1] + "$" + parts[2]},
		{"zero iterations", "pbkdf2:sha256:0$" + parts[1] + "$" + parts[2]},
		{"missing iterations", "pbkdf2:sha256$" + parts[1] + "$" + parts[2]},
		{"empty salt", "pbkdf2:sha256:1000$$" + parts[2]},
		{"bad hex", "pbkdf2:sha256:1000$" + parts[1] + "$zz"},
		{"short digest", "pbkdf2:sha256:1000$" + parts[1] + "$abcd"},
		{"extra segment", good + "$extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.Verify("pw", tt.credential))
		})
	}
}

func TestPBKDF2HasherVerifiesOtherParameters(t *testing.T) {
	// A credential written with different settings still verifies.
	old := NewPBKDF2Hasher(500, 4)
	credential, err := old.Hash("pw")
	require.NoError(t, err)

	assert.True(t, testHasher().Verify("pw", credential))
}

func TestNewPBKDF2HasherDefaults(t *testing.T) {
	h := NewPBKDF2Hasher(0, -1)
	assert.Equal(t, DefaultIterations, h.Iterations)
	assert.Equal(t, DefaultSaltLength, h.SaltLength)
}
