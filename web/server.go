package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// Server wraps an http.Server bound to a router and its container. On
// shutdown the listener drains first, then the container closes, so the
// application store unwinds exactly once after the last request finished.
type Server struct {
	httpServer *http.Server
	router     *Router
	log        *slog.Logger
}

// NewServer creates a server from the configuration and router.
func NewServer(cfg Config, router *Router) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		router: router,
		log:    router.log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout and closes the container.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Join(err, s.router.container.Close(context.Background()))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	if closeErr := s.router.container.Close(shutdownCtx); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	return err
}
