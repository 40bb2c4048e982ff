package launchdarkly

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://app.launchdarkly.com"
	DefaultTimeout = 30 * time.Second
)

// Config holds the LaunchDarkly API configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// LoadConfig loads the API configuration from environment variables.
// A missing LD_API_KEY is not an error here; the client reports it on fetch.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKey:  os.Getenv("LD_API_KEY"),
		BaseURL: os.Getenv("LD_BASE_URL"),
		Timeout: DefaultTimeout,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if timeoutStr := os.Getenv("LD_TIMEOUT_SECONDS"); timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid LD_TIMEOUT_SECONDS value: %q", timeoutStr)
		}
		cfg.Timeout = time.Duration(timeout) * time.Second
	}

	return cfg, nil
}
