package vidu

import (
	"strings"
	"time"

	"vidu-proxy-server/modules/common/config"
)

// Config - what the Vidu service needs from the server configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// ConfigFrom extracts the Vidu settings, filling in defaults for zero values.
func ConfigFrom(c *config.Config) Config {
	cfg := Config{
		APIKey:  c.ViduAPIKey,
		BaseURL: strings.TrimRight(c.ViduBaseURL, "/"),
		Timeout: c.RequestTimeout,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultViduBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultRequestTimeout
	}
	return cfg
}
