// Package mockaccounts is an in-memory accounts service speaking the same
// HTTP/JSON API as the real backend. Tests run it under httptest; the
// mockaccounts command serves it for manual use of the CLI.
//
// Every destination accepts the configured one-time code (123456 unless
// changed with WithCode). Tokens are HS256 JWTs; refresh tokens rotate on
// every use. Hooks let tests revoke access tokens, slow down or fail the
// refresh endpoint, and inject failures on any route.
package mockaccounts

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	DefaultCode       = "123456"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

type fault struct {
	status int
	code   string
	times  int
}

type Server struct {
	secret     []byte
	code       string
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu            sync.Mutex
	users         map[string]*models.User
	byDestination map[string]string
	profiles      map[string]*models.Profile
	access        map[string]string // valid access token -> user id
	refresh       map[string]string // valid refresh token -> user id
	faults        map[string]*fault
	requestIDs    []string
	refreshDelay  time.Duration
	refreshErr    int

	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32

	router *mux.Router
}

type Option func(*Server)

func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

func WithCode(code string) Option {
	return func(s *Server) { s.code = code }
}

func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) { s.accessTTL = d }
}

func WithRefreshTTL(d time.Duration) Option {
	return func(s *Server) { s.refreshTTL = d }
}

func New(opts ...Option) *Server {
	s := &Server{
		secret:        common.GenerateRandByteArray(32),
		code:          DefaultCode,
		accessTTL:     defaultAccessTTL,
		refreshTTL:    defaultRefreshTTL,
		users:         make(map[string]*models.User),
		byDestination: make(map[string]string),
		profiles:      make(map[string]*models.Profile),
		access:        make(map[string]string),
		refresh:       make(map[string]string),
		faults:        make(map[string]*fault),
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RevokeAccessTokens invalidates every issued access token, as if they had
// all expired. Refresh tokens stay valid.
func (s *Server) RevokeAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.access)
}

// RevokeRefreshTokens invalidates every issued refresh token.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.refresh)
}

// SetRefreshDelay makes the refresh endpoint wait before answering.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

// FailRefresh makes the refresh endpoint answer with status until reset
// with 0.
func (s *Server) FailRefresh(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshErr = status
}

// FailNext makes the next times requests to path answer with status and
// the given error code.
func (s *Server) FailNext(path string, status int, code string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = &fault{status: status, code: code, times: times}
}

func (s *Server) RefreshCalls() int { return int(s.refreshCalls.Load()) }

func (s *Server) LogoutCalls() int { return int(s.logoutCalls.Load()) }

// RequestIDs returns the X-Request-ID of every request seen so far.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// Login creates (or finds) the user behind dest and issues a token pair
// without the OTP exchange.
func (s *Server) Login(dest models.Destination) (models.AuthTokens, *models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findOrCreateLocked(dest)
	tokens, err := s.issueLocked(u.ID)
	if err != nil {
		return models.AuthTokens{}, nil, err
	}
	return tokens, u.Clone(), nil
}

// User returns a copy of the stored user.
func (s *Server) User(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Clone()
}

func (s *Server) issueLocked(userID string) (models.AuthTokens, error) {
	access, err := GenerateToken(userID, kindAccess, s.secret, s.accessTTL)
	if err != nil {
		return models.AuthTokens{}, err
	}
	refresh, err := GenerateToken(userID, kindRefresh, s.secret, s.refreshTTL)
	if err != nil {
		return models.AuthTokens{}, err
	}
	s.access[access] = userID
	s.refresh[refresh] = userID

	accessIn := int64(s.accessTTL / time.Second)
	refreshIn := int64(s.refreshTTL / time.Second)
	return models.AuthTokens{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresIn:  &accessIn,
		RefreshTokenExpiresIn: &refreshIn,
	}, nil
}

func (s *Server) revokeUserLocked(userID string) {
	for tok, id := range s.access {
		if id == userID {
			delete(s.access, tok)
		}
	}
	for tok, id := range s.refresh {
		if id == userID {
			delete(s.refresh, tok)
		}
	}
}
