package server

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context that is cancelled on an interrupt or
// terminate signal.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Shutdown closes sockets, stops the HTTP listener and flushes traces.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down server")

	s.Bridge.Close()
	err := s.E.Shutdown(ctx)
	if cerr := s.PubSub.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	s.shutdownTracing()
	_ = s.injector.Shutdown()

	return err
}
