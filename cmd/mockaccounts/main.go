// Command mockaccounts serves an in-memory accounts service for trying the
// gophauth CLI without a backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/testing/mockaccounts"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := LoadConfig(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	opts, err := cfg.options()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err := mockaccounts.New(opts...).ListenAndServe(ctx, cfg.Addr, log); err != nil {
		log.Error(ctx, err.Error())
		return 1
	}
	return 0
}
