package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/refresh"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

const (
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 4 << 20
)

// TokenReader supplies the access token attached to outbound requests.
type TokenReader interface {
	AccessToken(ctx context.Context) string
}

// Coordinator is the refresh coordinator shared by every transport.
type Coordinator = refresh.Coordinator[*Response]

// NewCoordinator builds the coordinator that refreshes through the accounts
// service at accountsURL.
func NewCoordinator(store refresh.TokenStore, accountsURL string, httpClient *http.Client, opts ...refresh.Option[*Response]) *Coordinator {
	return refresh.New[*Response](store, RefreshTokens(accountsURL, httpClient), opts...)
}

// Transport is the single path for outbound API calls. It attaches the
// bearer token, classifies failures into *Error and routes 401 responses
// through the shared refresh coordinator.
type Transport struct {
	baseURL string
	http    *http.Client
	tokens  TokenReader
	coord   *Coordinator
	log     logging.Logger
}

type TransportOption func(*Transport)

func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) { t.http = c }
}

// WithTimeout sets the per-request ceiling. Exceeding it is a network error.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *Transport) { t.http.Timeout = d }
}

func WithLogger(l logging.Logger) TransportOption {
	return func(t *Transport) { t.log = l }
}

func NewTransport(baseURL string, tokens TokenReader, coord *Coordinator, opts ...TransportOption) *Transport {
	t := &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
		coord:   coord,
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// SetAuthFailureHandler registers the callback run when a refresh fails.
// It is the second construction step, after the session exists.
func (t *Transport) SetAuthFailureHandler(fn func(ctx context.Context)) {
	t.coord.SetFailureHandler(fn)
}

// Refresh forces a coordinated token refresh.
func (t *Transport) Refresh(ctx context.Context) error {
	return t.coord.Refresh(ctx)
}

func (t *Transport) Stats() refresh.Stats {
	return t.coord.Stats()
}

// Do sends req. A 401 on an authenticated request is recovered by the
// refresh coordinator; if that fails the returned error wraps
// refresh.ErrSessionExpired.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	token := ""
	if !req.SkipAuth {
		token = t.tokens.AccessToken(ctx)
	}

	resp, err := t.send(ctx, req, token)
	if err == nil {
		return resp, nil
	}

	if KindOf(err) != KindAuth || req.SkipAuth || req.SkipRefresh || req.retried {
		return nil, err
	}

	t.log.Debug(ctx, "request unauthorized, recovering session", "method", req.Method, "path", req.Path)

	resp, err = t.coord.Recover(ctx, token, func(ctx context.Context, access string) (*Response, error) {
		retry := *req
		retry.retried = true
		return t.send(ctx, &retry, access)
	})
	if err != nil {
		if errors.Is(err, refresh.ErrSessionExpired) {
			return nil, sessionExpiredError(err)
		}
		return nil, err
	}
	return resp, nil
}

func (t *Transport) send(ctx context.Context, req *Request, token string) (*Response, error) {

	target := t.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	hreq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range req.Header {
		hreq.Header[k] = v
	}
	if body != nil {
		hreq.Header.Set("Content-Type", common.ContentTypeJSON)
	}
	hreq.Header.Set("Accept", common.ContentTypeJSON)

	requestID := hreq.Header.Get(common.RequestIDHeaderName)
	if requestID == "" {
		requestID = uuid.NewString()
		hreq.Header.Set(common.RequestIDHeaderName, requestID)
	}
	if token != "" {
		hreq.Header.Set(common.AuthorizationHeaderName, common.BearerValue(token))
	}

	start := time.Now()
	hresp, err := t.http.Do(hreq)
	if err != nil {
		t.log.Debug(ctx, "request failed", "method", method, "path", req.Path, "request_id", requestID, "error", err)
		return nil, newNetworkError(err)
	}
	defer hresp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(hresp.Body, maxResponseBytes))
	if err != nil {
		return nil, newNetworkError(fmt.Errorf("read response: %w", err))
	}

	t.log.Debug(ctx, "request completed",
		"method", method,
		"path", req.Path,
		"status", hresp.StatusCode,
		"request_id", requestID,
		"retried", req.retried,
		"duration", time.Since(start),
	)

	if hresp.StatusCode >= http.StatusBadRequest {
		return nil, newHTTPError(hresp.StatusCode, raw)
	}

	return &Response{StatusCode: hresp.StatusCode, Header: hresp.Header, Body: raw}, nil
}

// RefreshTokens returns the function that exchanges a refresh token at the
// accounts service. It bypasses Transport so a rejected refresh can never
// recurse into another refresh.
func RefreshTokens(accountsURL string, httpClient *http.Client) refresh.RefreshFunc {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	raw := &Transport{
		baseURL: strings.TrimRight(accountsURL, "/"),
		http:    httpClient,
		log:     logging.Nop(),
	}

	return func(ctx context.Context, refreshToken string) (models.AuthTokens, error) {
		resp, err := raw.send(ctx, &Request{
			Method:   http.MethodPost,
			Path:     PathRefresh,
			Body:     models.RefreshRequest{RefreshToken: refreshToken},
			SkipAuth: true,
		}, "")
		if err != nil {
			return models.AuthTokens{}, err
		}

		var out models.RefreshResponse
		if err := resp.Decode(&out); err != nil {
			return models.AuthTokens{}, err
		}
		pair := out.Pair()
		if err := pair.Validate(); err != nil {
			return models.AuthTokens{}, fmt.Errorf("refresh response: %w", err)
		}
		return pair, nil
	}
}
