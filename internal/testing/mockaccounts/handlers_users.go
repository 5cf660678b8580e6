package mockaccounts

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.UserRegistration
	if !decodeBody(w, r, &req) {
		return
	}

	dest := destinationFrom(req.PhoneNumber, req.Email, req.PrimaryAuthMethod)
	if err := dest.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byDestination[destinationKey(dest)]; exists {
		writeError(w, http.StatusConflict, "USER_EXISTS", "user already exists")
		return
	}
	u := s.createLocked(dest)
	writeJSON(w, http.StatusCreated, map[string]any{"user": u.Clone()})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	s.mu.Lock()
	all := s.sortedUsersLocked()
	s.mu.Unlock()

	total := len(all)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)

	writeJSON(w, http.StatusOK, models.UserList{Users: all[offset:end], Total: total})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[currentUserID(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": s.withProfilesLocked(u)})
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	limit := queryInt(r, "limit", 20)

	s.mu.Lock()
	all := s.sortedUsersLocked()
	s.mu.Unlock()

	found := []models.User{}
	for _, u := range all {
		if len(found) >= limit {
			break
		}
		email := ""
		if u.Email != nil {
			email = *u.Email
		}
		if strings.Contains(strings.ToLower(u.PhoneNumber), q) || strings.Contains(strings.ToLower(email), q) {
			found = append(found, u)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": found})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[mux.Vars(r)["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": s.withProfilesLocked(u)})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id != currentUserID(r) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "cannot modify another user")
		return
	}

	var patch models.UserPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	if patch.Email != nil {
		u.Email = patch.Email
	}
	if patch.PhoneNumber != nil {
		u.PhoneNumber = *patch.PhoneNumber
	}
	if patch.PrimaryAuthMethod != nil {
		u.PrimaryAuthMethod = *patch.PrimaryAuthMethod
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": s.withProfilesLocked(u)})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id != currentUserID(r) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "cannot delete another user")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	for key, uid := range s.byDestination {
		if uid == id {
			delete(s.byDestination, key)
		}
	}
	for pid, p := range s.profiles {
		if p.UserID == id {
			delete(s.profiles, pid)
		}
	}
	s.revokeUserLocked(u.ID)
	delete(s.users, id)

	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "User deleted"})
}

func (s *Server) handleUserProfiles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	if _, ok := s.users[id]; !ok {
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": s.profilesOfLocked(id)})
}

func (s *Server) handleUpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id != currentUserID(r) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "cannot modify another user")
		return
	}

	var in models.ProfileInput
	if !decodeBody(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := s.profilesOfLocked(id)
	if len(profiles) == 0 {
		in.UserID = id
		writeJSON(w, http.StatusCreated, map[string]any{"profile": s.createProfileLocked(in)})
		return
	}
	p := s.profiles[profiles[0].ID]
	applyProfile(p, in)
	writeJSON(w, http.StatusOK, map[string]any{"profile": p})
}

func (s *Server) sortedUsersLocked() []models.User {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *s.withProfilesLocked(u))
	}
	sortUsers(out)
	return out
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
