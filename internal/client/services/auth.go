// Package services contains the application services the CLI and embedding
// programs call. This file defines the authentication service: requesting
// and verifying one-time codes, registration and logout.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/otp"
)

var ErrInvalidVerificationResponse = errors.New("invalid verification response from server")

// Session is the part of session.Manager the services drive.
type Session interface {
	Login(ctx context.Context, tokens models.AuthTokens, user *models.User) error
	Logout(ctx context.Context)
	State() models.SessionState
	UpdateUser(ctx context.Context, user *models.User)
}

// AuthService defines authentication operations.
//
// Contract:
//   - RequestCode: send a one-time code to the destination.
//   - Register: create the user, then send the first code.
//   - VerifyCode: exchange a code for tokens and start the session.
//   - NewFlow: an otp.Flow bound to VerifyCode and RequestCode.
//   - Logout: end the session locally and on the server.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	RequestCode(ctx context.Context, dest models.Destination) (string, error)
	Register(ctx context.Context, dest models.Destination) (*models.User, error)
	VerifyCode(ctx context.Context, dest models.Destination, code string) (*models.User, error)
	NewFlow(dest models.Destination, opts ...otp.Option) *otp.Flow
	Logout(ctx context.Context)
}

type authService struct {
	api     client.Client
	session Session
}

// NewAuthService constructs an AuthService bound to the given API client and
// session.
func NewAuthService(api client.Client, session Session) AuthService {
	return &authService{api: api, session: session}
}

// RequestCode asks the server to deliver a code and returns its message. A
// response with success=false is reported as a client error carrying the
// server's message.
func (a *authService) RequestCode(ctx context.Context, dest models.Destination) (string, error) {
	if err := dest.Validate(); err != nil {
		return "", err
	}

	resp, err := a.api.RequestOTP(ctx, dest.OTPRequest())
	if err != nil {
		return "", err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "Failed to send verification code"
		}
		return "", &client.Error{Kind: client.KindClient, Message: msg}
	}
	return resp.Message, nil
}

func (a *authService) Register(ctx context.Context, dest models.Destination) (*models.User, error) {
	if err := dest.Validate(); err != nil {
		return nil, err
	}

	u, err := a.api.Register(ctx, dest.Registration())
	if err != nil {
		return nil, err
	}
	if _, err := a.RequestCode(ctx, dest); err != nil {
		return u, fmt.Errorf("user registered, sending code failed: %w", err)
	}
	return u, nil
}

// VerifyCode exchanges code for a session. The session is started before
// returning, so the returned user is already the signed-in one.
func (a *authService) VerifyCode(ctx context.Context, dest models.Destination, code string) (*models.User, error) {
	if err := dest.Validate(); err != nil {
		return nil, err
	}

	resp, err := a.api.VerifyOTP(ctx, dest.OTPVerification(code))
	if err != nil {
		return nil, err
	}
	if resp.Tokens == nil || resp.User == nil {
		return nil, ErrInvalidVerificationResponse
	}
	if err := a.session.Login(ctx, *resp.Tokens, resp.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return resp.User, nil
}

func (a *authService) NewFlow(dest models.Destination, opts ...otp.Option) *otp.Flow {
	verify := func(ctx context.Context, code string) error {
		_, err := a.VerifyCode(ctx, dest, code)
		return err
	}
	resend := func(ctx context.Context) (string, error) {
		return a.RequestCode(ctx, dest)
	}
	return otp.New(verify, resend, opts...)
}

func (a *authService) Logout(ctx context.Context) {
	a.session.Logout(ctx)
}
