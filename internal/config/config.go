package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// EnvProduction selects the live PayGreen endpoint and enforces webhook
// signature verification. Any other value runs against the sandbox.
const EnvProduction = "production"

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	PayGreenEnv       string `env:"PAYGREEN_ENV" envDefault:"sandbox" validate:"required,oneof=sandbox production"`
	PayGreenSecretKey string `env:"PAYGREEN_SECRET_KEY,required" validate:"required"`

	// SiteURL is the public base URL of the storefront; checkout
	// return/cancel URLs are derived from it.
	SiteURL string `env:"SITE_URL,required" validate:"required,url"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=16"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" validate:"omitempty,email"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	hasResendKey := strings.TrimSpace(c.ResendAPIKey) != ""
	hasEmailFrom := strings.TrimSpace(c.EmailFrom) != ""
	if hasResendKey != hasEmailFrom {
		return fmt.Errorf("RESEND_API_KEY and EMAIL_FROM must be set together")
	}

	siteURL := strings.TrimSpace(c.SiteURL)
	parsed, err := url.Parse(siteURL)
	if err != nil || parsed.Hostname() == "" {
		return fmt.Errorf("SITE_URL must be a valid absolute URL")
	}
	if c.IsProduction() && !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("SITE_URL must use https in production")
	}

	return nil
}

// IsProduction reports whether the live PayGreen environment is selected.
func (c *Config) IsProduction() bool {
	return c != nil && c.PayGreenEnv == EnvProduction
}

// RedactedPayGreenKey returns a loggable form of the gateway credential.
func (c *Config) RedactedPayGreenKey() string {
	key := strings.TrimSpace(c.PayGreenSecretKey)
	if len(key) <= 6 {
		return "***"
	}
	return key[:6] + "***"
}
