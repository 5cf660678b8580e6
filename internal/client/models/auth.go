package models

import "errors"

var ErrEmptyToken = errors.New("access and refresh tokens must be non-empty")

// AuthTokens is the access/refresh pair issued by the accounts service.
// Expiry hints are in seconds and optional.
type AuthTokens struct {
	AccessToken           string `json:"accessToken"`
	RefreshToken          string `json:"refreshToken"`
	AccessTokenExpiresIn  *int64 `json:"accessTokenExpiresIn,omitempty"`
	RefreshTokenExpiresIn *int64 `json:"refreshTokenExpiresIn,omitempty"`
}

// Validate reports whether the pair can be persisted.
func (t AuthTokens) Validate() error {
	if t.AccessToken == "" || t.RefreshToken == "" {
		return ErrEmptyToken
	}
	return nil
}

type LoginResponse struct {
	Tokens *AuthTokens `json:"tokens"`
	User   *User       `json:"user"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse accepts both the {"tokens": {...}} envelope and a bare
// token object.
type RefreshResponse struct {
	Tokens *AuthTokens `json:"tokens"`
	AuthTokens
}

// Pair returns whichever shape the server sent.
func (r RefreshResponse) Pair() AuthTokens {
	if r.Tokens != nil {
		return *r.Tokens
	}
	return r.AuthTokens
}
