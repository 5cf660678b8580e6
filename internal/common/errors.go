// Package common defines shared constants and sentinel errors used across
// client and fake-backend layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)
