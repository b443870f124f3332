// Package config loads the client settings file and applies environment
// overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/smarttask/pkg/sdk"
	"github.com/felixgeelhaar/smarttask/pkg/storage"
)

const (
	configFile = "config.yaml"
	appDir     = "smarttask"

	EnvAPIURL    = "SMARTTASK_API_URL"
	EnvWSURL     = "SMARTTASK_WS_URL"
	EnvConfigDir = "SMARTTASK_CONFIG_DIR"

	DefaultPageSize = 10
)

// Config is the content of config.yaml.
type Config struct {
	APIURL   string `yaml:"api_url"`
	WSURL    string `yaml:"ws_url,omitempty"`
	PageSize int    `yaml:"page_size,omitempty"`
	Live     bool   `yaml:"live,omitempty"`
}

func Defaults() Config {
	return Config{
		APIURL:   sdk.DefaultBaseURL,
		PageSize: DefaultPageSize,
	}
}

// DefaultDir returns $SMARTTASK_CONFIG_DIR, or smarttask under the user
// config directory ($XDG_CONFIG_HOME or ~/.config on Linux).
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

// Load reads config.yaml from dir. A missing file yields the defaults.
// Environment overrides are applied last.
func Load(dir string) (*Config, error) {
	cfg := Defaults()

	path, err := storage.NewFilesystemStore(dir).ResolvePath(configFile)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	if cfg.APIURL == "" {
		cfg.APIURL = sdk.DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvWSURL); v != "" {
		c.WSURL = v
	}
}

// Save writes cfg to dir/config.yaml, creating dir if needed.
func Save(dir string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	path, err := storage.NewFilesystemStore(dir).ResolvePath(configFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// WebSocketURL returns WSURL when set. Otherwise it is derived from APIURL:
// http becomes ws, https becomes wss, and the path is replaced with /ws.
func (c Config) WebSocketURL() (string, error) {
	if c.WSURL != "" {
		return c.WSURL, nil
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("parse api url: unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
