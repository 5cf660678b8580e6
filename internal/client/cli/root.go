package cli

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

const flagAskPassphrase = "ask-passphrase"

// root owns the command tree and the App built for the running command.
type root struct {
	cmd  *cobra.Command
	opts []Option
	app  *App
}

func newRoot(version string, opts ...Option) *root {
	r := &root{opts: opts}
	s := newSettings(opts)

	r.cmd = &cobra.Command{
		Use:   "gophauth",
		Short: "Sign in to your account with one-time codes",
		Long: `gophauth signs in with a one-time code sent to a phone number or email
address and keeps the session in an encrypted local store. Expired access
tokens are refreshed automatically.`,
		Version: version,
		// Errors are printed by Execute with a matching exit code.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.setup,
	}
	r.cmd.SetIn(s.in)
	r.cmd.SetOut(s.out)
	r.cmd.SetErr(s.errOut)
	r.cmd.SetVersionTemplate(`{{printf "gophauth version %s\n" .Version}}`)

	config.RegisterFlags(r.cmd.PersistentFlags())
	r.cmd.PersistentFlags().Bool(flagAskPassphrase, false, "prompt for the storage passphrase")

	r.cmd.AddCommand(
		newLoginCmd(r),
		newRegisterCmd(r),
		newLogoutCmd(r),
		newWhoamiCmd(r),
		newStatusCmd(r),
		newRefreshCmd(r),
		newProfilesCmd(r),
	)
	return r
}

// setup loads the configuration from the parsed flags and builds the App.
func (r *root) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	if ask, _ := cmd.Flags().GetBool(flagAskPassphrase); ask {
		secret, err := getSecret(cmd.ErrOrStderr(), "Storage passphrase")
		if err != nil {
			return err
		}
		cfg.StoragePassphrase = string(secret)
		common.WipeByteArray(secret)
	}

	r.app, err = NewApp(cmd.Context(), cfg, r.opts...)
	return err
}

// Execute runs the command line args and returns the process exit code.
func Execute(ctx context.Context, version string, args []string, opts ...Option) int {
	r := newRoot(version, opts...)
	r.cmd.SetArgs(args)

	err := r.cmd.ExecuteContext(ctx)
	if r.app != nil {
		if cerr := r.app.Close(); err == nil {
			err = cerr
		}
	}

	err = classify(err)
	if err != nil {
		fmt.Fprintln(r.cmd.ErrOrStderr(), text.FgRed.Sprint(describe(err)))
	}
	return getExitCode(err)
}
