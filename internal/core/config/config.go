package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"development"`
	AppHost        string        `env:"APP_HOST" envDefault:":8080"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	MigrationsDir  string        `env:"MIGRATIONS_DIR" envDefault:"./migrations"`
	RunMigrations  bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"8h"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"5"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`

	NotificationWebhookURL string        `env:"NOTIFICATION_WEBHOOK_URL"`
	NotificationTimeout    time.Duration `env:"NOTIFICATION_TIMEOUT" envDefault:"5s"`

	HRISBaseURL string `env:"HRIS_BASE_URL"`
	HRISToken   string `env:"HRIS_API_TOKEN"`
	HRISFile    string `env:"HRIS_FILE"`
}

// Load reads .env when present, never overriding variables already set, then parses
// the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ValidateServer checks what serve needs beyond what migrate does.
func (c *Config) ValidateServer() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}

func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	return nil
}
