package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                      int     `env:"PORT" envDefault:"8080"`
	DatabaseURL               string  `env:"DATABASE_URL,required"`
	RedisURL                  string  `env:"REDIS_URL,required"`
	LogLevel                  string  `env:"LOG_LEVEL" envDefault:"info"`
	AdminUsername             string  `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPasswordHash         string  `env:"ADMIN_PASSWORD_HASH"`
	AdminSessionSecret        string  `env:"ADMIN_SESSION_SECRET"`
	EncryptionKey             string  `env:"ENCRYPTION_KEY"`
	OTPTTLSeconds             int     `env:"OTP_TTL_SECONDS" envDefault:"300"`
	OTPDevEcho                bool    `env:"OTP_DEV_ECHO" envDefault:"false"`
	SignupCredit              float64 `env:"SIGNUP_CREDIT" envDefault:"50"`
	GurujiPrice               float64 `env:"GURUJI_PRICE" envDefault:"5"`
	MaxRecharge               float64 `env:"MAX_RECHARGE" envDefault:"100000"`
	GeminiAPIKey              string  `env:"GEMINI_API_KEY"`
	GeminiModel               string  `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-latest"`
	PrecomputeIntervalSeconds int     `env:"PRECOMPUTE_INTERVAL_SECONDS" envDefault:"2"`
}

func (c *Config) OTPTTL() time.Duration {
	return time.Duration(c.OTPTTLSeconds) * time.Second
}

func (c *Config) PrecomputeInterval() time.Duration {
	return time.Duration(c.PrecomputeIntervalSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if c.EncryptionKey != "" && len(c.EncryptionKey) != 64 {
		return fmt.Errorf("ENCRYPTION_KEY must be 64 hex characters")
	}

	if c.GurujiPrice < 0 || c.SignupCredit < 0 {
		return fmt.Errorf("GURUJI_PRICE and SIGNUP_CREDIT must not be negative")
	}

	if c.MaxRecharge <= 0 {
		return fmt.Errorf("MAX_RECHARGE must be positive")
	}

	if isProduction {
		if err := validateSecret("ADMIN_SESSION_SECRET", c.AdminSessionSecret); err != nil {
			return err
		}
		if c.OTPDevEcho {
			return fmt.Errorf("OTP_DEV_ECHO must be disabled in production")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.EncryptionKey == "" {
			log.Warn().Msg("ENCRYPTION_KEY is empty in production: birth profiles will not be encrypted at rest")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
