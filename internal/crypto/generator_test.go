package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr error
	}{
		{"minimum length", MinPasswordLength, nil},
		{"typical length", 20, nil},
		{"maximum length", MaxPasswordLength, nil},
		{"too short", 4, ErrPasswordLength},
		{"too long", 200, ErrPasswordLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GeneratePassword(tt.length)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.length)

			assert.True(t, strings.ContainsAny(got, upperChars), "missing upper-case character")
			assert.True(t, strings.ContainsAny(got, lowerChars), "missing lower-case character")
			assert.True(t, strings.ContainsAny(got, digitChars), "missing digit")
			assert.True(t, strings.ContainsAny(got, symbolChars), "missing symbol")
		})
	}
}

func TestGeneratePasswordIsRandom(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		p, err := GeneratePassword(16)
		require.NoError(t, err)
		_, dup := seen[p]
		require.False(t, dup, "duplicate password generated")
		seen[p] = struct{}{}
	}
}
