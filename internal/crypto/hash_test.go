package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast; Verify reads them back from the digest.
func testHasher() *PasswordHasher {
	return NewPasswordHasher(HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func TestHashFormat(t *testing.T) {
	hash, err := NewPasswordHasher(DefaultHashParams()).Hash("correct-horse-battery-staple")
	require.NoError(t, err)

	parts := strings.Split(hash, "$")
	require.Len(t, parts, 6)
	assert.Equal(t, "argon2id", parts[1])
	assert.Equal(t, "v=19", parts[2])
	assert.Equal(t, "m=65536,t=3,p=2", parts[3])
}

func TestVerify(t *testing.T) {
	h := testHasher()
	hash, err := h.Hash("123456")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct password", "123456", true},
		{"wrong password", "654321", false},
		{"empty password", "", false},
		{"prefix of password", "12345", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify(tt.password, hash)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	h := testHasher()

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyWithDifferentParams(t *testing.T) {
	hash, err := testHasher().Hash("secret")
	require.NoError(t, err)

	ok, err := NewPasswordHasher(DefaultHashParams()).Verify("secret", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyMalformedHash(t *testing.T) {
	h := testHasher()

	tests := []struct {
		name    string
		encoded string
		wantErr error
	}{
		{"not phc", "invalid-hash-format", ErrInvalidHashFormat},
		{"wrong algorithm", "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5", ErrInvalidHashFormat},
		{"wrong version", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$a2V5", ErrIncompatibleVersion},
		{"bad params", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5", ErrInvalidHashFormat},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5", ErrInvalidHashFormat},
		{"empty key", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$", ErrInvalidHashFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Verify("password", tt.encoded)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
