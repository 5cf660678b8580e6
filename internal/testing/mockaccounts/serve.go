package mockaccounts

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// ListenAndServe serves the mock on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string, log logging.Logger) error {
	listen, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen, log)
}

// Serve accepts connections on listen until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, listen net.Listener, log logging.Logger) error {
	srv := &http.Server{Handler: s, ReadHeaderTimeout: shutdownTimeout}

	go func() {
		<-ctx.Done()
		log.Info(ctx, "Stopping mock accounts service...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error(ctx, "shutdown", "error", err)
		}
	}()

	log.Info(ctx, "Starting mock accounts service", "address", listen.Addr().String(), "code", s.code)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
