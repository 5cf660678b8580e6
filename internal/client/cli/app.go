package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/otp"
	"github.com/dmitrijs2005/gophauth/internal/client/refresh"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
	"github.com/dmitrijs2005/gophauth/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophauth/internal/filex"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// App holds everything a command needs: the token store, both transports
// sharing one refresh coordinator, the session manager and the services.
type App struct {
	config *config.Config
	log    logging.Logger

	store    *tokenstore.Store
	closer   io.Closer
	api      *client.Transport
	accounts *client.Transport
	session  *session.Manager

	authService services.AuthService
	userService services.UserService

	reader   *bufio.Reader
	out      io.Writer
	errOut   io.Writer
	quiet    bool
	flowOpts []otp.Option
}

type settings struct {
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	quiet    bool
	flowOpts []otp.Option
}

type Option func(*settings)

// WithIO replaces stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(s *settings) {
		s.in, s.out, s.errOut = in, out, errOut
	}
}

// WithQuiet disables progress spinners.
func WithQuiet() Option {
	return func(s *settings) { s.quiet = true }
}

// WithFlowOptions is applied to every one-time code flow the app starts.
func WithFlowOptions(opts ...otp.Option) Option {
	return func(s *settings) { s.flowOpts = append(s.flowOpts, opts...) }
}

func newSettings(opts []Option) *settings {
	s := &settings{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	for _, o := range opts {
		o(s)
	}
	if !isTerminal(s.out) {
		s.quiet = true
	}
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewApp opens the token store under the configured data directory, wires
// the client stack and restores the persisted session.
func NewApp(ctx context.Context, c *config.Config, opts ...Option) (*App, error) {
	s := newSettings(opts)
	log := logging.New(s.errOut, c.LogLevel, c.LogFormat)

	dataDir := c.DataDir
	if dataDir == "" {
		dir, err := filex.DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	store, closer, err := tokenstore.Open(ctx, dataDir, c.StoragePassphrase, tokenstore.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	httpClient := &http.Client{Timeout: c.RequestTimeout}
	coord := client.NewCoordinator(store, c.AccountsURL(), httpClient,
		refresh.WithLogger[*client.Response](log),
		refresh.WithTimeout[*client.Response](c.RequestTimeout),
	)
	accounts := client.NewTransport(c.AccountsURL(), store, coord, client.WithHTTPClient(httpClient), client.WithLogger(log))
	api := client.NewTransport(c.APIURL, store, coord, client.WithHTTPClient(httpClient), client.WithLogger(log))

	accountsAPI := client.NewAccountsClient(accounts, client.RetryPolicy{
		MaxRetries: c.RetryAttempts,
		BaseDelay:  c.RetryDelay,
		MaxDelay:   c.RetryMaxDelay,
	})

	a := &App{
		config:   c,
		log:      log,
		store:    store,
		closer:   closer,
		api:      api,
		accounts: accounts,
		reader:   bufio.NewReader(s.in),
		out:      s.out,
		errOut:   s.errOut,
		quiet:    s.quiet,
		flowOpts: s.flowOpts,
	}

	a.session = session.New(store, accountsAPI,
		session.WithLogger(log),
		session.WithNavigator(a),
		session.WithRefresher(accounts),
	)
	for _, t := range []*client.Transport{accounts, api} {
		t.SetAuthFailureHandler(a.session.HandleAuthFailure)
	}

	a.authService = services.NewAuthService(accountsAPI, a.session)
	a.userService = services.NewUserService(accountsAPI, a.session)

	a.session.Restore(ctx)
	return a, nil
}

// NavigateToSignIn is called once per ended session. A logout has already
// been reported by the command itself.
func (a *App) NavigateToSignIn(_ context.Context, reason session.SignOutReason) {
	if reason != session.ReasonSessionExpired {
		return
	}
	fmt.Fprintln(a.errOut, text.FgYellow.Sprint("Your session has expired. Run 'gophauth login' to sign in again."))
}

// Close waits for pending session writes and releases the token store.
func (a *App) Close() error {
	a.session.Wait()
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *App) requireSession() error {
	if !a.session.State().IsAuthenticated {
		return &AuthRequiredError{}
	}
	return nil
}
