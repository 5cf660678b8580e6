package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/refresh"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
)

// Exit codes returned by Execute.
const (
	ExitCodeSuccess = 0
	// ExitCodeError is any failure not covered below.
	ExitCodeError = 1
	// ExitCodeAuthRequired means there is no usable session.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed means code verification did not sign the user in.
	ExitCodeAuthFailed = 3
)

var errCodeEntryCancelled = errors.New("code entry cancelled")

// AuthRequiredError is returned by commands that need a session when
// nobody is signed in.
type AuthRequiredError struct{}

func (e *AuthRequiredError) Error() string {
	return `You are not signed in.

To sign in, run:
  gophauth login`
}

// AuthExpiredError is returned when the session was lost because the
// refresh token stopped working.
type AuthExpiredError struct {
	Reason error
}

func (e *AuthExpiredError) Error() string {
	return `Your session has expired.

To sign in again, run:
  gophauth login`
}

func (e *AuthExpiredError) Unwrap() error { return e.Reason }

// AuthFailedError is returned when the one-time code flow ends without a
// session.
type AuthFailedError struct {
	Reason error
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("Sign-in failed: %s", describe(e.Reason))
}

func (e *AuthFailedError) Unwrap() error { return e.Reason }

// classify maps errors from the client stack onto the command errors above.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var failed *AuthFailedError
	if errors.As(err, &failed) {
		return err
	}
	if errors.Is(err, refresh.ErrSessionExpired) {
		return &AuthExpiredError{Reason: err}
	}
	if errors.Is(err, session.ErrNotAuthenticated) {
		return &AuthRequiredError{}
	}
	return err
}

// getExitCode determines the exit code for err.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var authRequired *AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authExpired *AuthExpiredError
	if errors.As(err, &authExpired) {
		return ExitCodeAuthRequired
	}

	var authFailed *AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

// describe renders err for the terminal. Client errors get their
// user-facing message, everything else its own text.
func describe(err error) string {
	var (
		required *AuthRequiredError
		expired  *AuthExpiredError
		failed   *AuthFailedError
	)
	if errors.As(err, &required) || errors.As(err, &expired) || errors.As(err, &failed) {
		return err.Error()
	}

	var ce *client.Error
	if errors.As(err, &ce) {
		return client.UserMessage(err)
	}
	return err.Error()
}
