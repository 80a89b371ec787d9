package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the client configuration. Every field can be set through a
// DESTINAI_* environment variable or a .env file in the working directory.
type Config struct {
	BaseURL     string        `envconfig:"SERVER" default:"http://localhost:8080"`
	Env         string        `envconfig:"ENV" default:"production"`
	Home        string        `envconfig:"DIR"`
	LogFile     string        `envconfig:"LOG_FILE"`
	PageSize    int           `envconfig:"PAGE_SIZE" default:"10"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"0s"`
	Theme       string        `envconfig:"THEME" default:"classic"`
	CSRF        CSRFConfig
}

// CSRFConfig selects where the CSRF header pair comes from. A static
// Header/Token pair wins over scraping Page.
type CSRFConfig struct {
	Header string `envconfig:"HEADER"`
	Token  string `envconfig:"TOKEN"`
	Page   string `envconfig:"PAGE" default:"/login"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("DESTINAI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("home: %w", err)
		}
		c.Home = filepath.Join(home, ".destinai")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.Home, "destinai.log")
	}
	return nil
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, production, test)", c.Env)
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("DESTINAI_SERVER must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.PageSize < 1 || c.PageSize > 50 {
		return fmt.Errorf("DESTINAI_PAGE_SIZE must be between 1 and 50 (got %d)", c.PageSize)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("DESTINAI_HTTP_TIMEOUT must be non-negative")
	}
	if (c.CSRF.Header == "") != (c.CSRF.Token == "") {
		return fmt.Errorf("DESTINAI_CSRF_HEADER and DESTINAI_CSRF_TOKEN must be set together")
	}
	switch strings.ToLower(c.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("invalid theme: %s (must be one of: classic, neon, mono)", c.Theme)
	}
	return nil
}

// WithServer overrides BaseURL from a command-line flag.
func (c *Config) WithServer(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(raw), "/")
	return c.Validate()
}

// SessionDir holds state that only lives for one client session.
func (c *Config) SessionDir() string {
	return filepath.Join(c.Home, "session")
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, BaseURL=%s, Home=%s, PageSize=%d, HTTPTimeout=%s, Theme=%s, CSRF.Static=%t, CSRF.Page=%s}",
		c.Env, c.BaseURL, c.Home, c.PageSize, c.HTTPTimeout, c.Theme, c.CSRF.Header != "", c.CSRF.Page)
}
