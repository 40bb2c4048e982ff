package webserver

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultPort is used when PORT is unset.
const DefaultPort = 8080

// Config holds the listen address, the CORS origins and the optional API
// token of the report API.
type Config struct {
	ListenTo           string
	CorsAllowedOrigins []string
	APIToken           string
}

// LoadConfig reads PORT, CORS_ALLOWED_ORIGINS and API_TOKEN.
func LoadConfig() (*Config, error) {
	port := DefaultPort
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", portStr)
		}
		port = p
	}

	return &Config{
		ListenTo:           fmt.Sprintf(":%d", port),
		CorsAllowedOrigins: splitValues([]string{os.Getenv("CORS_ALLOWED_ORIGINS")}),
		APIToken:           os.Getenv("API_TOKEN"),
	}, nil
}
