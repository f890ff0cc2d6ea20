package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the client configuration file.
type Config struct {
	Server  ServerSection  `toml:"server"`
	History HistorySection `toml:"history"`
}

type ServerSection struct {
	// URL of the chat websocket, e.g. "wss://chat.example.com:8443".
	URL string `toml:"url"`
	// UploadURL is the base of the HTTP upload side channel. Empty means
	// derive it from the websocket URL.
	UploadURL string `toml:"upload_url"`
	// Reconnect backoff bounds in seconds.
	ReconnectDelaySeconds    int `toml:"reconnect_delay_seconds"`
	MaxReconnectDelaySeconds int `toml:"max_reconnect_delay_seconds"`
}

type HistorySection struct {
	// PageSize is how many older messages one scroll-to-top fetches.
	PageSize int `toml:"page_size"`
}

// UploadBase returns the HTTP base URL for the upload side channel. When not
// configured explicitly it is derived from the websocket URL.
func (c Config) UploadBase() string {
	if c.Server.UploadURL != "" {
		return c.Server.UploadURL
	}
	u := c.Server.URL
	switch {
	case strings.HasPrefix(u, "wss://"):
		return "https://" + strings.TrimPrefix(u, "wss://")
	case strings.HasPrefix(u, "ws://"):
		return "http://" + strings.TrimPrefix(u, "ws://")
	}
	return u
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerSection{
			URL:                      "wss://localhost:8443",
			ReconnectDelaySeconds:    1,
			MaxReconnectDelaySeconds: 30,
		},
		History: HistorySection{
			PageSize: DefaultPageSize,
		},
	}
}

// LoadConfig reads the config file, creating it with defaults if missing.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := SaveConfig(path, cfg); writeErr != nil {
			return cfg, fmt.Errorf("write default config: %w", writeErr)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.History.PageSize <= 0 {
		cfg.History.PageSize = DefaultPageSize
	}
	if cfg.Server.ReconnectDelaySeconds <= 0 {
		cfg.Server.ReconnectDelaySeconds = 1
	}
	if cfg.Server.MaxReconnectDelaySeconds < cfg.Server.ReconnectDelaySeconds {
		cfg.Server.MaxReconnectDelaySeconds = 30
	}
	return cfg, nil
}

// SaveConfig writes the configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
