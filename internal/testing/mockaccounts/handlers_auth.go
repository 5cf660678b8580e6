package mockaccounts

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

func (s *Server) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	dest := destinationFrom(req.PhoneNumber, req.Email, req.PrimaryAuthMethod)
	if err := dest.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Verification code sent to " + dest.Value})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPVerification
	if !decodeBody(w, r, &req) {
		return
	}

	method := models.AuthMethodPhone
	if req.Email != nil {
		method = models.AuthMethodEmail
	}
	dest := destinationFrom(req.PhoneNumber, req.Email, method)
	if err := dest.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.Code != s.code {
		writeError(w, http.StatusBadRequest, "INVALID_CODE", "Invalid verification code")
		return
	}

	s.mu.Lock()
	u := s.findOrCreateLocked(dest)
	now := time.Now().UTC()
	u.LastSeenAt = &now
	tokens, err := s.issueLocked(u.ID)
	user := s.withProfilesLocked(u)
	s.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Tokens: &tokens, User: user})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	var req models.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	delay, failStatus := s.refreshDelay, s.refreshErr
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if failStatus != 0 {
		writeError(w, failStatus, "REFRESH_FAILED", http.StatusText(failStatus))
		return
	}

	claims, err := ParseToken(req.RefreshToken, s.secret)
	if err != nil || claims.Kind != kindRefresh {
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "invalid refresh token")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.refresh[req.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "refresh token revoked")
		return
	}
	delete(s.refresh, req.RefreshToken)

	tokens, err := s.issueLocked(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.logoutCalls.Add(1)

	s.mu.Lock()
	s.revokeUserLocked(currentUserID(r))
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Logged out"})
}

func (s *Server) handleRequestEmailVerification(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u, ok := s.users[currentUserID(r)]
	hasEmail := ok && u.Email != nil
	s.mu.Unlock()

	if !hasEmail {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user has no email address")
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Verification email sent"})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req models.EmailVerification
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code != s.code {
		writeError(w, http.StatusBadRequest, "INVALID_CODE", "Invalid verification code")
		return
	}

	s.mu.Lock()
	if u, ok := s.users[currentUserID(r)]; ok {
		u.EmailVerified = true
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Email verified"})
}
