// -----------------------------------------------------------------------------
// JWT Authentication
// -----------------------------------------------------------------------------
// Stateless access tokens signed with HS256. The payload carries the username
// and the admin flag; the HTTP middleware trusts both once the signature and
// the registered claims check out.
// -----------------------------------------------------------------------------

package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the token payload.
type JWTClaims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// JWTConfig holds signing settings.
type JWTConfig struct {
	Secret         string
	Issuer         string
	ExpirationTime time.Duration
}

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// GenerateToken signs a token for username.
//
// Parameters:
//   - username: becomes both the username claim and the subject
//   - isAdmin: admin flag
//   - config: secret, issuer, lifetime
//
// Returns:
//   - string: signed token
//   - error: signing failure
func GenerateToken(username string, isAdmin bool, config JWTConfig) (string, error) {
	now := time.Now()

	claims := JWTClaims{
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.Issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if config.ExpirationTime > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(config.ExpirationTime))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Secret))
}

// ParseToken verifies tokenString and returns its claims. Tokens signed with
// anything but HMAC are rejected.
func ParseToken(tokenString string, config JWTConfig) (*JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractTokenFromHeader returns the token of a "Bearer <token>" header.
func ExtractTokenFromHeader(authHeader string) string {
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return strings.TrimSpace(authHeader[len(prefix):])
	}
	return ""
}
