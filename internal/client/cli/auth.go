package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/otp"
)

type destinationFlags struct {
	phone string
	email string
}

func (f *destinationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number to send the code to")
	cmd.Flags().StringVar(&f.email, "email", "", "email address to send the code to")
	cmd.MarkFlagsMutuallyExclusive("phone", "email")
}

// resolve returns the destination from the flags, or prompts for one.
func (f *destinationFlags) resolve(a *App) (models.Destination, error) {
	switch {
	case f.phone != "":
		return models.Phone(f.phone), nil
	case f.email != "":
		return models.Email(f.email), nil
	}

	s, err := getSimpleText(a.reader, "Enter phone number or email", a.out)
	if err != nil {
		return models.Destination{}, err
	}
	dest := parseDestination(s)
	return dest, dest.Validate()
}

func newLoginCmd(r *root) *cobra.Command {
	var dest destinationFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a one-time code",
		Long: `Sends a one-time code to a phone number or email address and signs in
once the code is entered. Type 'resend' at the prompt for a new code after
the countdown runs out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := dest.resolve(r.app)
			if err != nil {
				return err
			}
			return r.app.Login(cmd.Context(), d)
		},
	}
	dest.register(cmd)
	return cmd
}

func newRegisterCmd(r *root) *cobra.Command {
	var dest destinationFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := dest.resolve(r.app)
			if err != nil {
				return err
			}
			return r.app.Register(cmd.Context(), d)
		},
	}
	dest.register(cmd)
	return cmd
}

func newLogoutCmd(r *root) *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Logout(cmd.Context(), purge)
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "also wipe the local vault, passphrase salt included")
	return cmd
}

// Login requests a code for dest and runs the code prompt.
func (a *App) Login(ctx context.Context, dest models.Destination) error {
	msg, err := withSpinner(a, "Sending code...", func() (string, error) {
		return a.authService.RequestCode(ctx, dest)
	})
	if err != nil {
		return err
	}
	if msg != "" {
		fmt.Fprintln(a.out, msg)
	}
	return a.enterCode(ctx, dest)
}

// Register creates the account behind dest, which also sends the first code,
// and runs the code prompt.
func (a *App) Register(ctx context.Context, dest models.Destination) error {
	_, err := withSpinner(a, "Creating account...", func() (*models.User, error) {
		return a.authService.Register(ctx, dest)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created. A code was sent to %s.\n", dest.Value)
	return a.enterCode(ctx, dest)
}

// Logout ends the session. The server call is best effort. With purge the
// whole local vault is wiped afterwards, even when nobody was signed in.
func (a *App) Logout(ctx context.Context, purge bool) error {
	if a.session.State().IsAuthenticated {
		_, _ = withSpinner(a, "Signing out...", func() (struct{}, error) {
			a.authService.Logout(ctx)
			return struct{}{}, nil
		})
		fmt.Fprintln(a.out, "Signed out.")
	} else {
		fmt.Fprintln(a.out, "Not signed in.")
	}

	if !purge {
		return nil
	}
	if err := a.store.Purge(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Local vault wiped.")
	return nil
}

// enterCode prompts for the code until it is verified, the input ends or
// the user quits. The countdown runs in the background; 'resend' asks for a
// new code once it has run out.
func (a *App) enterCode(ctx context.Context, dest models.Destination) error {
	opts := append([]otp.Option{otp.WithTTL(a.config.OTPCodeTTL)}, a.flowOpts...)
	flow := a.authService.NewFlow(dest, opts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go flow.Run(ctx)

	for {
		snap := flow.Snapshot()
		prompt := fmt.Sprintf("Enter the %d-digit code (expires in %s, 'q' to quit)", otp.CodeLength, otp.FormatDuration(snap.Remaining))
		if snap.CanResend {
			prompt = "The code has expired. Type 'resend' for a new one ('q' to quit)"
		}

		line, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &AuthFailedError{Reason: errCodeEntryCancelled}
			}
			return err
		}

		switch strings.ToLower(line) {
		case "q", "quit":
			return &AuthFailedError{Reason: errCodeEntryCancelled}
		case "r", "resend":
			a.resend(ctx, flow)
			continue
		}

		err = a.submit(ctx, flow, line)
		switch {
		case err == nil:
			a.welcome()
			return nil
		case errors.Is(err, otp.ErrIncompleteCode):
			fmt.Fprintf(a.out, "The %s.\n", err)
		default:
			fmt.Fprintln(a.errOut, text.FgRed.Sprint(describe(err)))
		}
	}
}

func (a *App) submit(ctx context.Context, flow *otp.Flow, line string) error {
	_, err := withSpinner(a, "Verifying code...", func() (struct{}, error) {
		if err := flow.Input(ctx, line); err != nil {
			return struct{}{}, err
		}
		if flow.Snapshot().Phase == otp.PhaseVerified {
			return struct{}{}, nil
		}
		return struct{}{}, flow.Submit(ctx)
	})
	return err
}

func (a *App) resend(ctx context.Context, flow *otp.Flow) {
	msg, err := withSpinner(a, "Sending a new code...", func() (string, error) {
		return flow.Resend(ctx)
	})
	switch {
	case errors.Is(err, otp.ErrResendUnavailable):
		fmt.Fprintf(a.out, "You can request a new code in %s.\n", flow.FormatRemaining())
	case err != nil:
		fmt.Fprintln(a.errOut, text.FgRed.Sprint(describe(err)))
	case msg != "":
		fmt.Fprintln(a.out, msg)
	default:
		fmt.Fprintln(a.out, "A new code is on its way.")
	}
}

func (a *App) welcome() {
	u := a.session.State().User
	fmt.Fprintln(a.out, text.FgGreen.Sprintf("Signed in as %s.", u.Name()))
	if !u.HasProfile() {
		fmt.Fprintln(a.out, "Finish setting up your account with 'gophauth profiles complete'.")
	}
}
