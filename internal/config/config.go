package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/playperu/memorama/internal/memory"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	GameSeconds      int           `env:"GAME_SECONDS" envDefault:"65"`
	RevealWindow     time.Duration `env:"REVEAL_WINDOW" envDefault:"5s"`
	FlipBackDelay    time.Duration `env:"FLIP_BACK_DELAY" envDefault:"1s"`
	WinDelay         time.Duration `env:"WIN_DELAY" envDefault:"500ms"`
	ImageURLTemplate string        `env:"IMAGE_URL_TEMPLATE" envDefault:"https://picsum.photos/200/300?random=%d"`

	MaxSessions    int           `env:"MAX_SESSIONS" envDefault:"1000"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	ReapInterval   time.Duration `env:"REAP_INTERVAL" envDefault:"1m"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.GameSeconds <= 0:
		return fmt.Errorf("GAME_SECONDS must be positive, got %d", c.GameSeconds)
	case c.RevealWindow <= 0 || c.FlipBackDelay <= 0 || c.WinDelay <= 0:
		return fmt.Errorf("REVEAL_WINDOW, FLIP_BACK_DELAY and WIN_DELAY must be positive")
	case c.SessionIdleTTL <= 0 || c.ReapInterval <= 0:
		return fmt.Errorf("SESSION_IDLE_TTL and REAP_INTERVAL must be positive")
	case c.MaxSessions < 0:
		return fmt.Errorf("MAX_SESSIONS must not be negative, got %d", c.MaxSessions)
	}
	if err := memory.ValidateImageURLTemplate(c.ImageURLTemplate); err != nil {
		return fmt.Errorf("IMAGE_URL_TEMPLATE: %w", err)
	}
	return nil
}
