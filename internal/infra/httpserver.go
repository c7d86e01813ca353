package infra

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const defaultShutdownGrace = 10 * time.Second

// HTTPServer serves the local UI until its context is cancelled.
type HTTPServer struct {
	server *http.Server
	grace  time.Duration
}

// NewHTTPServer applies the configured timeouts. WriteTimeout does not limit
// websocket connections; they set their own deadlines after the upgrade.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
	return &HTTPServer{server: srv, grace: defaultShutdownGrace}
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Run listens on the configured address and blocks until ctx is done, then
// shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
