package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swfilms/swfilms-go/internal/model"
)

var testUser = &model.User{ID: 42, Username: "luke", Role: model.RoleRegular}

func TestIssueAndValidate(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue(testUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "luke", claims.Username)
	assert.Equal(t, model.RoleRegular, claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewTokenIssuer("test-secret", time.Hour).Validate("not-a-valid-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("correct-secret", time.Hour).Issue(testUser)
	require.NoError(t, err)

	_, err = NewTokenIssuer("wrong-secret", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	issued := time.Now()
	issuer.now = func() time.Time { return issued }

	token, err := issuer.Issue(testUser)
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateForeignClaims(t *testing.T) {
	secret := "test-secret"
	now := time.Now()

	tests := []struct {
		name   string
		claims Claims
	}{
		{
			name: "wrong issuer",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject: "42", Issuer: "someone-else", Audience: jwt.ClaimStrings{tokenAudience},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
		{
			name: "wrong audience",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject: "42", Issuer: tokenIssuer, Audience: jwt.ClaimStrings{"other-api"},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
		{
			name: "missing expiry",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject: "42", Issuer: tokenIssuer, Audience: jwt.ClaimStrings{tokenAudience},
			}},
		},
		{
			name: "non numeric subject",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject: "luke", Issuer: tokenIssuer, Audience: jwt.ClaimStrings{tokenAudience},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString([]byte(secret))
			require.NoError(t, err)

			_, err = NewTokenIssuer(secret, time.Hour).Validate(signed)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "42", Issuer: tokenIssuer, Audience: jwt.ClaimStrings{tokenAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer("test-secret", time.Hour).Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
