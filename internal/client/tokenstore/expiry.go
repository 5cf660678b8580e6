package tokenstore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// ExpirationTime decodes the exp claim of a JWT without verifying its
// signature. The result is only a hint for skipping doomed requests; the
// server remains the authority on validity.
func ExpirationTime(token string) (time.Time, error) {
	if token == "" {
		return time.Time{}, common.ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, common.ErrInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, common.ErrInvalidToken
	}
	return exp.Time, nil
}

// IsTokenExpired reports whether token is past its exp claim. A token that
// cannot be decoded, or has no exp, counts as expired.
func IsTokenExpired(token string) bool {
	exp, err := ExpirationTime(token)
	if err != nil {
		return true
	}
	return !time.Now().Before(exp)
}
