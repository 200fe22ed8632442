// Package config provides the configuration for the voicecall CLI.
//
// Configuration is stored under os.UserConfigDir()/voicecall/:
//
//	~/Library/Application Support/voicecall/   (macOS)
//	~/.config/voicecall/                       (Linux)
//	%AppData%/voicecall/                       (Windows)
//
// Layout:
//
//	voicecall/
//	├── config.yaml   # gateway_url, api_url, user_id, ...
//	└── history/      # call record database (default location)
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "voicecall"

	// configFile is the configuration filename.
	configFile = "config.yaml"
)

// Config holds the voicecall CLI configuration.
type Config struct {
	// GatewayURL is the websocket endpoint of the conversation gateway
	// (ws:// or wss://).
	GatewayURL string `yaml:"gateway_url"`

	// APIURL is the base URL of the session REST API.
	APIURL string `yaml:"api_url"`

	// Token is sent as a bearer token on session API requests.
	Token string `yaml:"token,omitempty"`

	// UserID identifies the caller to the backend.
	UserID string `yaml:"user_id"`

	// HistoryDir overrides the default call record location.
	HistoryDir string `yaml:"history_dir,omitempty"`

	// dir is the root configuration directory.
	dir string
}

// Dir returns the root configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

// Load loads the configuration from the default location. A missing
// config file yields an empty config, not an error.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom loads the configuration from a specific root directory.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration back to its root directory, creating
// the directory if needed.
func (c *Config) Save() error {
	if c.dir == "" {
		return fmt.Errorf("config has no directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(filepath.Join(c.dir, configFile), data, 0o600)
}

// HistoryPath returns the directory holding the call record database.
func (c *Config) HistoryPath() string {
	if c.HistoryDir != "" {
		return c.HistoryDir
	}
	return filepath.Join(c.dir, "history")
}
