package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// Client is the accounts service API used by the application services.
type Client interface {
	RequestOTP(ctx context.Context, req models.OTPRequest) (*models.MessageResponse, error)
	VerifyOTP(ctx context.Context, req models.OTPVerification) (*models.LoginResponse, error)
	Logout(ctx context.Context) error
	RequestEmailVerification(ctx context.Context) (*models.MessageResponse, error)
	VerifyEmail(ctx context.Context, code string) (*models.MessageResponse, error)

	Register(ctx context.Context, req models.UserRegistration) (*models.User, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) (*models.UserList, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	UserProfiles(ctx context.Context, userID string) ([]models.Profile, error)
	UpdateUserProfile(ctx context.Context, userID string, in models.ProfileInput) (*models.Profile, error)

	CreateProfile(ctx context.Context, in models.ProfileInput) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, in models.ProfileInput) (*models.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}
