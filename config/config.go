package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret   string `env:"JWT_SECRET,required" validate:"required,min=32"`
	JWTTTLHours int    `env:"JWT_TTL_HOURS"       envDefault:"720" validate:"min=1"`

	OTPTTLSeconds int `env:"OTP_TTL_SECONDS" envDefault:"120" validate:"min=10,max=3600"`
	OTPCodeLength int `env:"OTP_CODE_LENGTH" envDefault:"6"   validate:"min=4,max=10"`

	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID" validate:"required_if=Env production,required_if=Env staging"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"  validate:"required_if=Env production,required_if=Env staging"`
	TwilioFrom       string `env:"TWILIO_FROM"        validate:"required_if=Env production,required_if=Env staging"`

	EntryRatePerMinute int    `env:"ENTRY_RATE_PER_MINUTE" envDefault:"10"`
	SweepSchedule      string `env:"SWEEP_SCHEDULE"        envDefault:"@every 1m" validate:"required"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) OTPTTL() time.Duration {
	return time.Duration(c.OTPTTLSeconds) * time.Second
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}
