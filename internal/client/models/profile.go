package models

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type Profile struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	DisplayName       string    `json:"displayName"`
	Bio               *string   `json:"bio,omitempty"`
	DateOfBirth       time.Time `json:"dateOfBirth"`
	Gender            Gender    `json:"gender"`
	Status            *string   `json:"status,omitempty"`
	ProfileImageURL   *string   `json:"profileImageUrl,omitempty"`
	LastProfileUpdate time.Time `json:"lastProfileUpdate"`
}

func (p Profile) clone() Profile {
	c := p
	if p.Bio != nil {
		v := *p.Bio
		c.Bio = &v
	}
	if p.Status != nil {
		v := *p.Status
		c.Status = &v
	}
	if p.ProfileImageURL != nil {
		v := *p.ProfileImageURL
		c.ProfileImageURL = &v
	}
	return c
}

// ProfileInput is the create/update payload for a profile.
type ProfileInput struct {
	UserID          string    `json:"userId,omitempty"`
	FirstName       string    `json:"firstName,omitempty"`
	LastName        string    `json:"lastName,omitempty"`
	DisplayName     string    `json:"displayName,omitempty"`
	Bio             *string   `json:"bio,omitempty"`
	DateOfBirth     time.Time `json:"dateOfBirth"`
	Gender          Gender    `json:"gender,omitempty"`
	ProfileImageURL *string   `json:"profileImageUrl,omitempty"`
}
