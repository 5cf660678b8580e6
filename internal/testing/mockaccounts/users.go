package mockaccounts

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

func destinationKey(d models.Destination) string {
	return string(d.Method) + ":" + strings.ToLower(strings.TrimSpace(d.Value))
}

func destinationFrom(phone, email *string, method models.AuthMethod) models.Destination {
	if email != nil && (method == models.AuthMethodEmail || phone == nil) {
		return models.Email(*email)
	}
	if phone != nil {
		return models.Phone(*phone)
	}
	return models.Destination{Method: method}
}

func (s *Server) findOrCreateLocked(d models.Destination) *models.User {
	if id, ok := s.byDestination[destinationKey(d)]; ok {
		return s.users[id]
	}
	return s.createLocked(d)
}

func (s *Server) createLocked(d models.Destination) *models.User {
	now := time.Now().UTC()
	u := &models.User{
		ID:                uuid.NewString(),
		PrimaryAuthMethod: d.Method,
		Status:            models.UserStatusPendingVerification,
		LastSeenAt:        &now,
	}
	value := strings.TrimSpace(d.Value)
	if d.Method == models.AuthMethodEmail {
		u.Email = &value
	} else {
		u.PhoneNumber = value
	}

	s.users[u.ID] = u
	s.byDestination[destinationKey(d)] = u.ID
	return u
}

// withProfilesLocked returns a copy of u with its profiles attached.
func (s *Server) withProfilesLocked(u *models.User) *models.User {
	c := u.Clone()
	c.Profiles = s.profilesOfLocked(u.ID)
	return c
}

func (s *Server) profilesOfLocked(userID string) []models.Profile {
	out := []models.Profile{}
	for _, p := range s.profiles {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	slices.SortFunc(out, func(a, b models.Profile) int {
		if c := a.LastProfileUpdate.Compare(b.LastProfileUpdate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
