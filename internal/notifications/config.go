package notifications

import (
	"os"
	"strings"
)

// NotificationConfig holds the notification-related configuration.
type NotificationConfig struct {
	ShoutrrrURLs []string
	Title        string
}

// LoadNotificationConfig loads notification configuration from environment
// variables. SHOUTRRR_URLS is optional; without it notifications are disabled.
func LoadNotificationConfig() *NotificationConfig {
	title := os.Getenv("NOTIFY_TITLE")
	if title == "" {
		title = "Feature flags cleanup"
	}
	return &NotificationConfig{
		ShoutrrrURLs: parseShoutrrrURLs(os.Getenv("SHOUTRRR_URLS")),
		Title:        title,
	}
}

// Enabled reports whether at least one service URL is configured.
func (c *NotificationConfig) Enabled() bool {
	return len(c.ShoutrrrURLs) > 0
}

// parseShoutrrrURLs parses a comma-separated list of Shoutrrr URLs.
func parseShoutrrrURLs(urls string) []string {
	var result []string
	for _, url := range strings.Split(urls, ",") {
		trimmed := strings.TrimSpace(url)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
