package mockaccounts

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

type ctxKey string

const userIDKey ctxKey = "userID"

const apiPrefix = "/accounts/api/v1"

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recordRequest, s.injectFaults)

	api := r.PathPrefix(apiPrefix).Subrouter()

	api.HandleFunc("/users/auth/request-otp", s.handleRequestOTP).Methods(http.MethodPost)
	api.HandleFunc("/users/auth/verify-otp", s.handleVerifyOTP).Methods(http.MethodPost)
	api.HandleFunc("/users/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/users", s.handleRegister).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.requireAuth)

	authed.HandleFunc("/users/auth/logout", s.handleLogout).Methods(http.MethodPost)
	authed.HandleFunc("/users/auth/request-email-verification", s.handleRequestEmailVerification).Methods(http.MethodPost)
	authed.HandleFunc("/users/auth/verify-email", s.handleVerifyEmail).Methods(http.MethodPost)

	authed.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	authed.HandleFunc("/users/me", s.handleCurrentUser).Methods(http.MethodGet)
	authed.HandleFunc("/users/search", s.handleSearchUsers).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}", s.handleUpdateUser).Methods(http.MethodPatch)
	authed.HandleFunc("/users/{id}", s.handleDeleteUser).Methods(http.MethodDelete)
	authed.HandleFunc("/users/{id}/profiles", s.handleUserProfiles).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}/profile", s.handleUpdateUserProfile).Methods(http.MethodPatch)

	authed.HandleFunc("/profiles", s.handleCreateProfile).Methods(http.MethodPost)
	authed.HandleFunc("/profiles", s.handleListProfiles).Methods(http.MethodGet)
	authed.HandleFunc("/profiles/{id}", s.handleGetProfile).Methods(http.MethodGet)
	authed.HandleFunc("/profiles/{id}", s.handleUpdateProfile).Methods(http.MethodPatch)
	authed.HandleFunc("/profiles/{id}", s.handleDeleteProfile).Methods(http.MethodDelete)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}

func (s *Server) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requestIDs = append(s.requestIDs, r.Header.Get(common.RequestIDHeaderName))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.faults[r.URL.Path]
		if ok {
			f.times--
			if f.times <= 0 {
				delete(s.faults, r.URL.Path)
			}
		}
		s.mu.Unlock()

		if ok {
			writeError(w, f.status, f.code, http.StatusText(f.status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerScheme+" ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing token")
			return
		}

		claims, err := ParseToken(token, s.secret)
		if err != nil || claims.Kind != kindAccess {
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
			return
		}

		s.mu.Lock()
		userID, valid := s.access[token]
		s.mu.Unlock()
		if !valid {
			writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", common.ErrTokenExpired.Error())
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", common.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed JSON body")
		return false
	}
	return true
}
