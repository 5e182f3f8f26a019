// Package utils provides helper functions for password hashing and for
// issuing and parsing the signed tokens used by the auth flows.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type claims. Access tokens authorize API calls and are never
// stored; refresh tokens are additionally persisted and single-use.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned when a token fails signature, expiry or
// structural validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload embedded in both token kinds. Type
// distinguishes access from refresh so one can never stand in for the
// other.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// SignedToken bundles a serialized JWT with its expiry.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// NewSignedToken builds and signs an HS256 JWT of the given type for a
// user. The expiry is now + ttl in UTC.
func NewSignedToken(secret, userID, email, typ string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Email:  email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies signature and expiry and returns the embedded
// claims. Callers check the Type claim themselves; parsing does not
// care which kind of token it was handed.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
