package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

var ErrEmptyResponse = errors.New("empty response")

// AccountsClient implements Client over a Transport. Reads are retried with
// the configured policy; writes are sent once.
type AccountsClient struct {
	t     *Transport
	retry RetryPolicy
}

var _ Client = (*AccountsClient)(nil)

func NewAccountsClient(t *Transport, retry RetryPolicy) *AccountsClient {
	return &AccountsClient{t: t, retry: retry}
}

func (c *AccountsClient) get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return Retry(ctx, c.retry, func(ctx context.Context) (*Response, error) {
		return c.t.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
	})
}

// decodeUser accepts {"user": {...}} as well as a bare user object.
func decodeUser(resp *Response) (*models.User, error) {
	var env struct {
		User *models.User `json:"user"`
	}
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}
	if env.User != nil {
		return env.User, nil
	}

	var u models.User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, ErrEmptyResponse
	}
	return &u, nil
}

// decodeProfile accepts {"profile": {...}} as well as a bare profile object.
func decodeProfile(resp *Response) (*models.Profile, error) {
	var env struct {
		Profile *models.Profile `json:"profile"`
	}
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}
	if env.Profile != nil {
		return env.Profile, nil
	}

	var p models.Profile
	if err := resp.Decode(&p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, ErrEmptyResponse
	}
	return &p, nil
}

func decodeProfiles(resp *Response) ([]models.Profile, error) {
	var env struct {
		Profiles []models.Profile `json:"profiles"`
	}
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}
	return env.Profiles, nil
}

func decodeMessage(resp *Response) (*models.MessageResponse, error) {
	var m models.MessageResponse
	if err := resp.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *AccountsClient) RequestOTP(ctx context.Context, req models.OTPRequest) (*models.MessageResponse, error) {
	resp, err := c.t.Do(ctx, &Request{Method: http.MethodPost, Path: PathRequestOTP, Body: req, SkipAuth: true})
	if err != nil {
		return nil, err
	}
	return decodeMessage(resp)
}

func (c *AccountsClient) VerifyOTP(ctx context.Context, req models.OTPVerification) (*models.LoginResponse, error) {
	resp, err := c.t.Do(ctx, &Request{Method: http.MethodPost, Path: PathVerifyOTP, Body: req, SkipAuth: true})
	if err != nil {
		return nil, err
	}
	var out models.LoginResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the session server-side. A 401 is returned as is; the
// caller tears the session down locally either way.
func (c *AccountsClient) Logout(ctx context.Context) error {
	_, err := c.t.Do(ctx, &Request{Method: http.MethodPost, Path: PathLogout, SkipRefresh: true})
	return err
}

func (c *AccountsClient) RequestEmailVerification(ctx context.Context) (*models.MessageResponse, error) {
	resp, err := c.t.Do(ctx, &Request{Method: http.MethodPost, Path: PathRequestEmailVerification})
	if err != nil {
		return nil, err
	}
	return decodeMessage(resp)
}

func (c *AccountsClient) VerifyEmail(ctx context.Context, code string) (*models.MessageResponse, error) {
	resp, err := c.t.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   PathVerifyEmail,
		Body:   models.EmailVerification{Code: code},
	})
	if err != nil {
		return nil, err
	}
	return decodeMessage(resp)
}

func (c *AccountsClient) Register(ctx context.Context, req models.UserRegistration) (*models.User, error) {
	resp, err := c.t.Do(ctx, &Request{Method: http.MethodPost, Path: PathUsers, Body: req, SkipAuth: true})
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

func (c *AccountsClient) CurrentUser(ctx context.Context) (*models.User, error) {
	resp, err := c.get(ctx, PathCurrentUser, nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

func (c *AccountsClient) ListUsers(ctx context.Context, limit, offset int) (*models.UserList, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	resp, err := c.get(ctx, PathUsers, q)
	if err != nil {
		return nil, err
	}
	var out models.UserList
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AccountsClient) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	resp, err := c.get(ctx, PathSearchUsers, q)
	if err != nil {
		return nil, err
	}
	var out models.UserList
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *AccountsClient) GetUser(ctx context.Context, id string) (*models.User, error) {
	resp, err := c.get(ctx, userPath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

func (c *AccountsClient) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	resp, err := c.t.Do(ctx, &Request{Method: http.MethodPatch, Path: userPath(id), Body: patch})
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

func (c *AccountsClient) DeleteUser(ctx context.Context, id string) error {
	_, err := c.t.Do(ctx, &Request{Method: http.MethodDelete, Path: userPath(id)})
	return err
}

func (c *AccountsClient) UserProfiles(ctx context.Context, userID string) ([]models.Profile, error) {
	resp, err := c.get(ctx, userProfilesPath(userID), nil)
	if err != nil {
		return nil, err
	}
	return decodeProfiles(resp)
}

func (c *AccountsClient) UpdateUserProfile(ctx context.Context, userID string, in models.ProfileInput) (*models.Profile, error) {
	resp, err := c.t.Do(ctx, &Request{Method: http.MethodPatch, Path: userProfilePath(userID), Body: in})
	if err != nil {
		return nil, err
	}
	return decodeProfile(resp)
}

func (c *AccountsClient) CreateProfile(ctx context.Context, in models.ProfileInput) (*models.Profile, error) {
	resp, err := c.t.Do(ctx, &Request{Method: http.MethodPost, Path: PathProfiles, Body: in})
	if err != nil {
		return nil, err
	}
	return decodeProfile(resp)
}

func (c *AccountsClient) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	resp, err := c.get(ctx, PathProfiles, nil)
	if err != nil {
		return nil, err
	}
	return decodeProfiles(resp)
}

func (c *AccountsClient) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	resp, err := c.get(ctx, profilePath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeProfile(resp)
}

func (c *AccountsClient) UpdateProfile(ctx context.Context, id string, in models.ProfileInput) (*models.Profile, error) {
	resp, err := c.t.Do(ctx, &Request{Method: http.MethodPatch, Path: profilePath(id), Body: in})
	if err != nil {
		return nil, err
	}
	return decodeProfile(resp)
}

func (c *AccountsClient) DeleteProfile(ctx context.Context, id string) error {
	_, err := c.t.Do(ctx, &Request{Method: http.MethodDelete, Path: profilePath(id)})
	return err
}
