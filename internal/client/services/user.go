package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
)

// UserService keeps the signed-in user current and manages its profiles.
type UserService interface {
	Refresh(ctx context.Context) (*models.User, error)
	CompleteProfile(ctx context.Context, in models.ProfileInput) (*models.User, error)
	Profiles(ctx context.Context) ([]models.Profile, error)
}

type userService struct {
	api     client.Client
	session Session
	group   singleflight.Group
}

func NewUserService(api client.Client, session Session) UserService {
	return &userService{api: api, session: session}
}

// Refresh fetches the current user and applies it to the session.
// Concurrent calls share one request.
func (s *userService) Refresh(ctx context.Context) (*models.User, error) {
	v, err, _ := s.group.Do("me", func() (any, error) {
		u, err := s.api.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		s.session.UpdateUser(ctx, u)
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.User).Clone(), nil
}

// CompleteProfile creates the first profile of the signed-in user and
// activates the account.
func (s *userService) CompleteProfile(ctx context.Context, in models.ProfileInput) (*models.User, error) {
	st := s.session.State()
	if !st.IsAuthenticated || st.User == nil {
		return nil, session.ErrNotAuthenticated
	}

	in.UserID = st.User.ID
	if _, err := s.api.CreateProfile(ctx, in); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	active := models.UserStatusActive
	u, err := s.api.UpdateUser(ctx, st.User.ID, models.UserPatch{Status: &active})
	if err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}

	s.session.UpdateUser(ctx, u)
	return u, nil
}

func (s *userService) Profiles(ctx context.Context) ([]models.Profile, error) {
	return s.api.ListProfiles(ctx)
}
