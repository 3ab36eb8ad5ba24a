// Package server assembles the chat room: configuration, the session engine,
// the message bus, the websocket bridge and the HTTP routes around them.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/huddle/internal/config"
	appmiddleware "github.com/nfrund/huddle/internal/middleware"
	"github.com/nfrund/huddle/internal/pubsub"
	"github.com/nfrund/huddle/internal/session"
	"github.com/nfrund/huddle/internal/websocket"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E       *echo.Echo
	Cfg     *config.Config
	Engine  *session.Engine
	Bridge  *websocket.Bridge
	PubSub  *pubsub.WatermillBridge
	metrics *prometheus.Registry

	injector        *do.RootScope
	shutdownTracing func()
}

// tracing bundles the tracer with the function that flushes it.
type tracing struct {
	tracer   trace.Tracer
	shutdown func()
}

// New wires every component described by cfg. Nothing runs until Start.
func New(cfg *config.Config) (*Server, error) {
	injector := do.New()
	do.ProvideValue(injector, cfg)

	do.Provide(injector, func(i do.Injector) (*tracing, error) {
		c := do.MustInvoke[*config.Config](i)
		tracer, shutdown, err := pubsub.SetupOTel(context.Background(), c.Tracing)
		if err != nil {
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
		return &tracing{tracer: tracer, shutdown: shutdown}, nil
	})

	do.Provide(injector, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		t := do.MustInvoke[*tracing](i)
		return pubsub.NewWatermillBridgeWithTracer(t.tracer), nil
	})

	do.Provide(injector, func(i do.Injector) (*session.Engine, error) {
		c := do.MustInvoke[*config.Config](i)
		bus := do.MustInvoke[*pubsub.WatermillBridge](i)
		return session.New(pubsub.NewOutbox(bus), session.Config{
			HistoryCapacity:  c.HistoryCapacity,
			MaxNameLength:    c.MaxNameLength,
			MaxMessageLength: c.MaxMessageLength,
			NotifyRejections: c.NotifyRejections,
		}), nil
	})

	do.Provide(injector, func(i do.Injector) (*websocket.Bridge, error) {
		c := do.MustInvoke[*config.Config](i)
		engine := do.MustInvoke[*session.Engine](i)
		return websocket.NewBridge(engine,
			websocket.WithClientBuffer(c.ClientBuffer),
			websocket.WithPingInterval(c.PingInterval),
			websocket.WithWriteTimeout(c.WriteTimeout),
			websocket.WithOriginPatterns(c.AllowedOrigins...),
		), nil
	})

	t, err := do.Invoke[*tracing](injector)
	if err != nil {
		return nil, err
	}
	bus, err := do.Invoke[*pubsub.WatermillBridge](injector)
	if err != nil {
		return nil, err
	}
	engine, err := do.Invoke[*session.Engine](injector)
	if err != nil {
		return nil, err
	}
	bridge, err := do.Invoke[*websocket.Bridge](injector)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(middleware.Recover())
	setupErrorHandling(e)

	s := &Server{
		E:               e,
		Cfg:             cfg,
		Engine:          engine,
		Bridge:          bridge,
		PubSub:          bus,
		metrics:         prometheus.NewRegistry(),
		injector:        injector,
		shutdownTracing: t.shutdown,
	}
	s.RegisterRoutes()

	slog.Info("Server assembled",
		"history_capacity", cfg.HistoryCapacity,
		"notify_rejections", cfg.NotifyRejections,
		"tracing", cfg.Tracing.Enabled,
	)
	return s, nil
}
