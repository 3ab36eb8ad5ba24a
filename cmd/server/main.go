package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nfrund/huddle/internal/config"
	"github.com/nfrund/huddle/internal/logging"
	"github.com/nfrund/huddle/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel))

	s, err := server.New(cfg)
	if err != nil {
		slog.Error("Failed to assemble server", "error", err)
		os.Exit(1)
	}

	ctx, stop := server.SignalContext(context.Background())
	defer stop()

	if err := s.Start(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
