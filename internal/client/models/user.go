package models

import "time"

type AuthMethod string

const (
	AuthMethodPhone AuthMethod = "phone"
	AuthMethodEmail AuthMethod = "email"
)

func (m AuthMethod) Valid() bool {
	return m == AuthMethodPhone || m == AuthMethodEmail
}

type UserStatus string

const (
	UserStatusActive              UserStatus = "active"
	UserStatusInactive            UserStatus = "inactive"
	UserStatusPendingVerification UserStatus = "pending-verification"
)

type User struct {
	ID                string     `json:"id"`
	PhoneNumber       string     `json:"phoneNumber"`
	Email             *string    `json:"email,omitempty"`
	PrimaryAuthMethod AuthMethod `json:"primaryAuthMethod"`
	Status            UserStatus `json:"status"`
	EmailVerified     bool       `json:"emailVerified"`
	Profiles          []Profile  `json:"profiles,omitempty"`
	LastSeenAt        *time.Time `json:"lastSeenAt,omitempty"`

	// Older backends send these flat fields instead of a profile.
	DisplayName    string `json:"displayName,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Clone returns a deep copy of u. A nil user clones to nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Email != nil {
		e := *u.Email
		c.Email = &e
	}
	if u.LastSeenAt != nil {
		t := *u.LastSeenAt
		c.LastSeenAt = &t
	}
	if u.Profiles != nil {
		c.Profiles = make([]Profile, len(u.Profiles))
		for i := range u.Profiles {
			c.Profiles[i] = u.Profiles[i].clone()
		}
	}
	return &c
}

// Name picks the best human-readable label for the user.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if len(u.Profiles) > 0 && u.Profiles[0].DisplayName != "" {
		return u.Profiles[0].DisplayName
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.PrimaryAuthMethod == AuthMethodEmail && u.Email != nil {
		return *u.Email
	}
	return u.PhoneNumber
}

// HasProfile reports whether onboarding created at least one profile.
func (u *User) HasProfile() bool {
	return u != nil && len(u.Profiles) > 0
}

type UserList struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

// UserPatch is a partial update; nil fields are left unchanged.
type UserPatch struct {
	Email             *string     `json:"email,omitempty"`
	PhoneNumber       *string     `json:"phoneNumber,omitempty"`
	PrimaryAuthMethod *AuthMethod `json:"primaryAuthMethod,omitempty"`
	Status            *UserStatus `json:"status,omitempty"`
	DisplayName       *string     `json:"displayName,omitempty"`
}
