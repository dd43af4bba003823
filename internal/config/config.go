// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the command center configuration.
type Config struct {
	Store    StoreConfig    `toml:"store"`
	LLM      LLMConfig      `toml:"llm"`
	Resolver ResolverConfig `toml:"resolver"`
	Server   ServerConfig   `toml:"server"`
	Sessions SessionsConfig `toml:"sessions"`
	Logging  LoggingConfig  `toml:"logging"`
}

// StoreConfig contains record store settings.
type StoreConfig struct {
	Dir   string `toml:"dir"`   // Directory holding the JSON collections
	Watch bool   `toml:"watch"` // Reload roster files on change
}

// LLMConfig contains planner model settings.
type LLMConfig struct {
	Model      string `toml:"model"`
	APIKeyEnv  string `toml:"api_key_env"`
	TimeoutSec int    `toml:"timeout"` // Interpretation timeout in seconds
}

// ResolverConfig contains reference resolution settings.
type ResolverConfig struct {
	Threshold float64 `toml:"threshold"`  // Minimum match score
	TieMargin float64 `toml:"tie_margin"` // Score gap below which a match is ambiguous
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// SessionsConfig contains command audit trail settings.
type SessionsConfig struct {
	Dir     string `toml:"dir"`
	Enabled bool   `toml:"enabled"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Debug bool `toml:"debug"`
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		Store: StoreConfig{
			Dir:   "data",
			Watch: true,
		},
		LLM: LLMConfig{
			Model:      "gemini-2.0-flash",
			APIKeyEnv:  "GOOGLE_API_KEY",
			TimeoutSec: 30,
		},
		Resolver: ResolverConfig{
			Threshold: 0.70,
			TieMargin: 0.10,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Sessions: SessionsConfig{
			Dir:     "sessions",
			Enabled: true,
		},
	}
}

// Default returns a default configuration.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from tutorcc.toml in the current
// directory, falling back to defaults when the file does not exist.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	path := filepath.Join(cwd, "tutorcc.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// GetAPIKey returns the planner API key from the configured
// environment variable.
func (c *Config) GetAPIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}

// Timeout returns the interpretation timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.LLM.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSec) * time.Second
}
