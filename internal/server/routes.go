package server

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nfrund/huddle/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	s.E.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "huddle",
		Registerer: s.metrics,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	s.E.GET("/health", s.health)
	s.E.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, s.metrics},
	}))
	s.E.GET("/ws", s.Bridge.Handler(), middleware.RateLimiter(middleware.DefaultHandshakeRate))

	if s.Cfg.StaticDir != "" {
		s.E.Static("/", s.Cfg.StaticDir)
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Sockets int    `json:"sockets"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", Sockets: s.Bridge.ClientCount()})
}
