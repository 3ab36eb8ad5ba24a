package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nfrund/huddle/internal/pubsub"
)

// Config holds all configuration for the application.
type Config struct {
	Port      string `env:"PORT" envDefault:"3000" validate:"required,numeric"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	HistoryCapacity  int  `env:"HUDDLE_HISTORY_CAPACITY" envDefault:"50" validate:"min=1"`
	MaxNameLength    int  `env:"HUDDLE_MAX_NAME_LENGTH" envDefault:"30" validate:"min=1"`
	MaxMessageLength int  `env:"HUDDLE_MAX_MESSAGE_LENGTH" envDefault:"500" validate:"min=1"`
	NotifyRejections bool `env:"HUDDLE_NOTIFY_REJECTIONS" envDefault:"false"`

	ClientBuffer   int           `env:"HUDDLE_CLIENT_BUFFER" envDefault:"256" validate:"min=1"`
	PingInterval   time.Duration `env:"HUDDLE_PING_INTERVAL" envDefault:"30s" validate:"min=0"`
	WriteTimeout   time.Duration `env:"HUDDLE_WRITE_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	AllowedOrigins []string      `env:"HUDDLE_ALLOWED_ORIGINS" envSeparator:","`
	StaticDir      string        `env:"HUDDLE_STATIC_DIR"`

	Tracing pubsub.TracingConfig
}

// New loads configuration from an optional .env file and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return Load()
}

// Load reads configuration from the environment only.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}
