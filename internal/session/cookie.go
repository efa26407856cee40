package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "pk_admin"

type cookieClaims struct {
	jwt.RegisteredClaims
}

// Signer turns session ids into tamper-proof cookie values.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign encodes the session id as an HS256 JWT valid until expiresAt.
func (s *Signer) Sign(sessionID string, expiresAt time.Time) (string, error) {
	claims := cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// Parse returns the session id of a cookie value.
func (s *Signer) Parse(value string) (string, error) {
	if value == "" {
		return "", ErrNotAuthenticated
	}
	var claims cookieClaims
	token, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrNotAuthenticated
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrNotAuthenticated
	}
	return claims.Subject, nil
}
