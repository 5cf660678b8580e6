package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthTokens_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tokens  AuthTokens
		wantErr bool
	}{
		{"both present", AuthTokens{AccessToken: "a", RefreshToken: "r"}, false},
		{"no access", AuthTokens{RefreshToken: "r"}, true},
		{"no refresh", AuthTokens{AccessToken: "a"}, true},
		{"empty", AuthTokens{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tokens.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrEmptyToken)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRefreshResponse_AcceptsBothShapes(t *testing.T) {
	var wrapped RefreshResponse
	require.NoError(t, json.Unmarshal([]byte(`{"tokens":{"accessToken":"a1","refreshToken":"r1"}}`), &wrapped))
	assert.Equal(t, AuthTokens{AccessToken: "a1", RefreshToken: "r1"}, wrapped.Pair())

	var bare RefreshResponse
	require.NoError(t, json.Unmarshal([]byte(`{"accessToken":"a2","refreshToken":"r2","accessTokenExpiresIn":900}`), &bare))
	pair := bare.Pair()
	assert.Equal(t, "a2", pair.AccessToken)
	assert.Equal(t, "r2", pair.RefreshToken)
	require.NotNil(t, pair.AccessTokenExpiresIn)
	assert.EqualValues(t, 900, *pair.AccessTokenExpiresIn)
}

func TestUser_JSONUsesBackendKeys(t *testing.T) {
	raw := `{
		"id": "u1",
		"phoneNumber": "+15550001",
		"email": "a@b.c",
		"primaryAuthMethod": "email",
		"status": "pending-verification",
		"emailVerified": true,
		"profiles": [{"id": "p1", "userId": "u1", "displayName": "Ann", "gender": "female",
			"dateOfBirth": "1990-01-02T00:00:00Z", "lastProfileUpdate": "2024-01-01T00:00:00Z"}]
	}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.Equal(t, "u1", u.ID)
	require.NotNil(t, u.Email)
	assert.Equal(t, "a@b.c", *u.Email)
	assert.Equal(t, AuthMethodEmail, u.PrimaryAuthMethod)
	assert.Equal(t, UserStatusPendingVerification, u.Status)
	require.Len(t, u.Profiles, 1)
	assert.Equal(t, GenderFemale, u.Profiles[0].Gender)
	assert.Equal(t, time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC), u.Profiles[0].DateOfBirth)
	assert.Equal(t, "Ann", u.Name())
}

func TestUser_CloneIsDeep(t *testing.T) {
	email := "a@b.c"
	bio := "hi"
	seen := time.Now()
	u := &User{ID: "u1", Email: &email, LastSeenAt: &seen, Profiles: []Profile{{ID: "p1", Bio: &bio}}}

	c := u.Clone()
	assert.Empty(t, cmp.Diff(u, c))

	*c.Email = "x@y.z"
	*c.Profiles[0].Bio = "changed"
	c.Profiles[0].ID = "p2"

	assert.Equal(t, "a@b.c", *u.Email)
	assert.Equal(t, "hi", *u.Profiles[0].Bio)
	assert.Equal(t, "p1", u.Profiles[0].ID)

	var nilUser *User
	assert.Nil(t, nilUser.Clone())
}

func TestUser_Name(t *testing.T) {
	email := "a@b.c"
	assert.Equal(t, "+1555", (&User{PhoneNumber: "+1555", PrimaryAuthMethod: AuthMethodPhone}).Name())
	assert.Equal(t, "a@b.c", (&User{PhoneNumber: "+1555", Email: &email, PrimaryAuthMethod: AuthMethodEmail}).Name())
	assert.Equal(t, "Legacy", (&User{DisplayName: "Legacy", PhoneNumber: "+1555"}).Name())
	assert.Equal(t, "", (*User)(nil).Name())
}

func TestDestination_Validate(t *testing.T) {
	tests := []struct {
		name    string
		dest    Destination
		wantErr error
	}{
		{"phone", Phone("+15550001"), nil},
		{"email", Email("a@b.c"), nil},
		{"blank phone", Phone("   "), ErrEmptyDestination},
		{"email without at", Email("nope"), ErrInvalidAuthMethod},
		{"unknown method", Destination{Method: "sms", Value: "1"}, ErrInvalidAuthMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dest.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDestination_Payloads(t *testing.T) {
	req := Phone(" +15550001 ").OTPRequest()
	require.NotNil(t, req.PhoneNumber)
	assert.Equal(t, "+15550001", *req.PhoneNumber)
	assert.Nil(t, req.Email)
	assert.Equal(t, AuthMethodPhone, req.PrimaryAuthMethod)

	ver := Email("a@b.c").OTPVerification("123456")
	require.NotNil(t, ver.Email)
	assert.Nil(t, ver.PhoneNumber)
	assert.Equal(t, "123456", ver.Code)

	b, err := json.Marshal(Email("a@b.c").Registration())
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.c","primaryAuthMethod":"email"}`, string(b))
}

func TestSessionState_CloneDetachesUser(t *testing.T) {
	s := SessionState{User: &User{ID: "u1"}, IsAuthenticated: true}
	c := s.Clone()
	c.User.ID = "u2"
	assert.Equal(t, "u1", s.User.ID)
}
