package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// ClientConfig configures the consultctl command-line client.
type ClientConfig struct {
	APIURL       string        `env:"CONSULT_API_URL" envDefault:"http://localhost:8080"`
	Timeout      time.Duration `env:"CONSULT_CLIENT_TIMEOUT" envDefault:"60s"`
	IdentityFile string        `env:"CONSULT_IDENTITY_FILE"`
	LogLevel     string        `env:"CONSULT_LOG_LEVEL" envDefault:"warn"`
}

// IdentityPath is where the client keeps its identity between runs,
// defaulting to a file in the home directory.
func (c *ClientConfig) IdentityPath() (string, error) {
	if c.IdentityFile != "" {
		return c.IdentityFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, DefaultIdentityFileName), nil
}

func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = ClientHTTPTimeout
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIBaseURL
	}
	return &cfg, nil
}
