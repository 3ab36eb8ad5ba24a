package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Start runs the engine, the bridge and the HTTP listener until ctx is done,
// then shuts everything down.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.Bridge.Start(ctx, s.PubSub); err != nil {
		return fmt.Errorf("start websocket bridge: %w", err)
	}
	go func() {
		if err := s.Engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Session engine stopped unexpectedly", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.Cfg.Addr())
		if err := s.E.Start(s.Cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := s.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}
