package mockaccounts

import (
	"cmp"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

func (s *Server) createProfileLocked(in models.ProfileInput) *models.Profile {
	p := &models.Profile{ID: uuid.NewString(), UserID: in.UserID}
	applyProfile(p, in)
	s.profiles[p.ID] = p
	return p
}

func applyProfile(p *models.Profile, in models.ProfileInput) {
	if in.FirstName != "" {
		p.FirstName = in.FirstName
	}
	if in.LastName != "" {
		p.LastName = in.LastName
	}
	if in.DisplayName != "" {
		p.DisplayName = in.DisplayName
	} else if p.DisplayName == "" {
		p.DisplayName = p.FirstName + " " + p.LastName
	}
	if in.Bio != nil {
		p.Bio = in.Bio
	}
	if !in.DateOfBirth.IsZero() {
		p.DateOfBirth = in.DateOfBirth
	}
	if in.Gender != "" {
		p.Gender = in.Gender
	}
	if in.ProfileImageURL != nil {
		p.ProfileImageURL = in.ProfileImageURL
	}
	p.LastProfileUpdate = time.Now().UTC()
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var in models.ProfileInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.UserID == "" {
		in.UserID = currentUserID(r)
	}
	if in.UserID != currentUserID(r) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "cannot create a profile for another user")
		return
	}
	if in.FirstName == "" && in.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "firstName or displayName is required")
		return
	}
	if in.Gender != "" && !in.Gender.Valid() {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "gender must be male, female or other")
		return
	}

	s.mu.Lock()
	p := s.createProfileLocked(in)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"profile": p})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"profiles": s.profilesOfLocked(currentUserID(r))})
}

// ownedProfileLocked resolves the {id} route variable to a profile of the
// caller, writing the error response itself when it cannot.
func (s *Server) ownedProfileLocked(w http.ResponseWriter, r *http.Request) (*models.Profile, bool) {
	p, ok := s.profiles[mux.Vars(r)["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
		return nil, false
	}
	if p.UserID != currentUserID(r) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "profile belongs to another user")
		return nil, false
	}
	return p, true
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.ownedProfileLocked(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{"profile": p})
	}
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in models.ProfileInput
	if !decodeBody(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.ownedProfileLocked(w, r); ok {
		applyProfile(p, in)
		writeJSON(w, http.StatusOK, map[string]any{"profile": p})
	}
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.ownedProfileLocked(w, r); ok {
		delete(s.profiles, p.ID)
		writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Profile deleted"})
	}
}

func sortUsers(users []models.User) {
	slices.SortFunc(users, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
}
