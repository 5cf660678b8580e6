package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/tokenstore"
)

const healthPath = "/health"

func newStatusCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session and whether the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Status(cmd.Context())
		},
	}
}

func newRefreshCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new token pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Refresh(cmd.Context())
		},
	}
}

// tokenExpiry renders when the access token stops working.
func tokenExpiry(token string) string {
	if token == "" {
		return orDash("")
	}
	exp, err := tokenstore.ExpirationTime(token)
	if err != nil {
		return text.FgYellow.Sprint("unknown")
	}
	if !exp.After(time.Now()) {
		return text.FgRed.Sprintf("expired %s", exp.Local().Format(time.DateTime))
	}
	return exp.Local().Format(time.DateTime)
}

// ping checks the primary API without credentials.
func (a *App) ping(ctx context.Context) error {
	_, err := a.api.Do(ctx, &client.Request{Method: http.MethodGet, Path: healthPath, SkipAuth: true})
	return err
}

func (a *App) Status(ctx context.Context) error {
	st := a.session.State()
	access := a.store.AccessToken(ctx)
	keys, err := a.store.Keys(ctx)
	if err != nil {
		return err
	}

	reachable, _ := withSpinner(a, "Checking API...", func() (string, error) {
		if err := a.ping(ctx); err != nil {
			return text.FgRed.Sprint(describe(err)), nil
		}
		return text.FgGreen.Sprint("reachable"), nil
	})

	t := newTable(a.out)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Signed in", yesNo(st.IsAuthenticated)},
		{"User", orDash(st.User.Name())},
		{"Access token expires", tokenExpiry(access)},
		{"Stored entries", orDash(strings.Join(keys, ", "))},
		{"API", fmt.Sprintf("%s (%s)", a.config.APIURL, reachable)},
		{"Accounts service", a.config.AccountsURL()},
	})
	t.Render()
	return nil
}

// Refresh forces a token refresh through the shared coordinator.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	_, err := withSpinner(a, "Refreshing session...", func() (struct{}, error) {
		return struct{}{}, a.accounts.Refresh(ctx)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Session refreshed. Access token expires %s.\n", tokenExpiry(a.store.AccessToken(ctx)))
	return nil
}
