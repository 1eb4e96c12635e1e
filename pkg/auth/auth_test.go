package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testConfig = JWTConfig{
	Secret:         "test-secret-test-secret-test-secret",
	Issuer:         "jobly",
	ExpirationTime: time.Hour,
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("u1", true, testConfig)
	require.NoError(t, err)

	claims, err := ParseToken(token, testConfig)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Username)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "jobly", claims.Issuer)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("u1", false, testConfig)
	require.NoError(t, err)

	other := testConfig
	other.Secret = "another-secret-another-secret-xx"
	_, err = ParseToken(token, other)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestParseToken_Expired(t *testing.T) {
	claims := JWTClaims{
		Username: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "jobly",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)

	_, err = ParseToken(token, testConfig)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := JWTClaims{Username: "admin", IsAdmin: true, RegisteredClaims: jwt.RegisteredClaims{Issuer: "jobly"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(token, testConfig)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_WrongIssuer(t *testing.T) {
	other := testConfig
	other.Issuer = "someone-else"
	token, err := GenerateToken("u1", false, other)
	require.NoError(t, err)

	_, err = ParseToken(token, testConfig)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromHeader("bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Bearer "))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
}

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("password1")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", hash)
	assert.True(t, h.Check("password1", hash))
	assert.False(t, h.Check("password2", hash))

	_, err = h.Hash("")
	assert.Error(t, err)

	assert.True(t, NewHasher(bcrypt.MinCost+1).NeedsRehash(hash))
	assert.False(t, h.NeedsRehash(hash))
	assert.Equal(t, DefaultHashCost, NewHasher(0).Cost)
}
