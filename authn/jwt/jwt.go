// Package jwt verifies the bearer token an upstream identity provider
// issued and turns it into a types.Principal: authentication itself is
// external, and the core only ever reads the Principal handed to it. Token
// issuance/refresh and session-fingerprint checks are dropped since
// nothing in this module issues its own tokens.
package jwt

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/forbearing/crud6/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrTokenNotValidYet = errors.New("token not valid yet")
)

const issuer = "crud6"

// Claims is the subset of an upstream-issued token this module reads.
type Claims struct {
	UserID string   `json:"user_id,omitempty"`
	Roles  []string `json:"roles,omitempty"`

	jwt.RegisteredClaims
}

func keyFunc(token *jwt.Token) (any, error) {
	return []byte(config.App.Auth.SigningKey), nil
}

// ParseToken validates tokenStr's signature and standard claims and
// returns the decoded Claims.
func ParseToken(tokenStr string) (*Claims, error) {
	if len(tokenStr) == 0 {
		return nil, ErrTokenMalformed
	}

	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotValidYet
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, errors.Wrap(err, "failed to parse token")
		}
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != "" && claims.Issuer != issuer {
		return nil, errors.New("invalid token issuer")
	}
	return claims, nil
}

// ParseTokenFromHeader extracts and validates a "Bearer <token>"
// Authorization header.
func ParseTokenFromHeader(header http.Header) (token string, claims *Claims, err error) {
	value := header.Get("Authorization")
	if len(value) == 0 {
		return "", nil, ErrInvalidToken
	}
	items := strings.SplitN(value, " ", 2)
	if len(items) != 2 || items[0] != "Bearer" {
		return "", nil, ErrInvalidToken
	}
	token = items[1]
	claims, err = ParseToken(token)
	return token, claims, err
}
