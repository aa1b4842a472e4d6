package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/safar/go-storefront/internal/config"
)

func TestLegacyTokens(t *testing.T) {
	var tokens LegacyTokens

	token, err := tokens.Issue(42)
	require.NoError(t, err)
	assert.Equal(t, "token-42", token)

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "42", "token-", "token-abc", "token-0", "token--3", "token-12abc", "bearer-1"} {
		_, err := tokens.Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, bad)
	}
}

func TestJWTTokens(t *testing.T) {
	tokens, err := NewJWTTokens([]byte("secret"), time.Hour)
	require.NoError(t, err)

	token, err := tokens.Issue(7)
	require.NoError(t, err)

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	other, err := NewJWTTokens([]byte("different"), time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("token-7")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTTokensExpire(t *testing.T) {
	tokens, err := NewJWTTokens([]byte("secret"), time.Minute)
	require.NoError(t, err)

	issuedAt := time.Now()
	tokens.now = func() time.Time { return issuedAt }
	token, err := tokens.Issue(3)
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTTokensRejectOtherAlgorithms(t *testing.T) {
	tokens, err := NewJWTTokens([]byte("secret"), time.Hour)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokens(t *testing.T) {
	legacy, err := NewTokens(config.AuthConfig{TokenMode: config.TokenModeLegacy})
	require.NoError(t, err)
	assert.IsType(t, LegacyTokens{}, legacy)

	jwtTokens, err := NewTokens(config.AuthConfig{TokenMode: config.TokenModeJWT, JWTSecret: "x"})
	require.NoError(t, err)
	assert.IsType(t, &JWTTokens{}, jwtTokens)

	_, err = NewTokens(config.AuthConfig{TokenMode: config.TokenModeJWT})
	assert.Error(t, err)

	_, err = NewTokens(config.AuthConfig{TokenMode: "paseto"})
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("admin123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "admin123", hash)
	assert.True(t, CheckPassword(hash, "admin123"))
	assert.False(t, CheckPassword(hash, "admin124"))
	assert.False(t, CheckPassword("admin123", "admin123"))
}

func TestHashPasswordRejectsLongPasswords(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := HashPassword(strings.Repeat("a", MaxPasswordBytes), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, strings.Repeat("a", MaxPasswordBytes)))
}
