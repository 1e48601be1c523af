package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Timeouts bound the HTTP server's connection phases.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

// Server is a listening API server.
type Server struct {
	server   *http.Server
	listener net.Listener
	shutdown time.Duration
	logger   *slog.Logger
}

// Listen binds addr. Use ":0" for an ephemeral port.
func Listen(ctx context.Context, addr string, handler http.Handler, timeouts Timeouts, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	return &Server{
		server: &http.Server{
			Handler:           handler,
			ReadTimeout:       timeouts.Read,
			ReadHeaderTimeout: timeouts.Read,
			WriteTimeout:      timeouts.Write,
			IdleTimeout:       timeouts.Idle,
			BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
		},
		listener: listener,
		shutdown: timeouts.Shutdown,
		logger:   logger,
	}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve blocks until ctx is cancelled or the server fails, then drains
// in-flight requests within the shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.server.Serve(s.listener)
	}()

	s.logger.InfoContext(ctx, "api server listening", "addr", "http://"+s.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx := context.WithoutCancel(ctx)

	if s.shutdown > 0 {
		var cancel context.CancelFunc

		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.shutdown)
		defer cancel()
	}

	s.logger.InfoContext(ctx, "api server shutting down")

	err := s.server.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}

	return nil
}
