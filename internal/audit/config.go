package audit

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/y0ug/flagaudit/internal/flags"
)

const (
	DefaultProject = "default"
	DefaultMonths  = 3
)

// Config holds the audit defaults shared by the CLI and the web server.
type Config struct {
	Project          string
	Months           int
	EnvironmentOrder []string
	ExcludeFile      string
}

// LoadConfig loads audit defaults from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Project:          os.Getenv("LD_PROJECT"),
		Months:           DefaultMonths,
		EnvironmentOrder: flags.DefaultEnvironmentOrder,
		ExcludeFile:      os.Getenv("AUDIT_EXCLUDE_FILE"),
	}
	if cfg.Project == "" {
		cfg.Project = DefaultProject
	}

	if monthsStr := os.Getenv("AUDIT_MONTHS"); monthsStr != "" {
		months, err := strconv.Atoi(monthsStr)
		if err != nil || months < 0 {
			return nil, fmt.Errorf("invalid AUDIT_MONTHS value: %q", monthsStr)
		}
		cfg.Months = months
	}

	if orderStr := os.Getenv("LD_ENVIRONMENT_ORDER"); orderStr != "" {
		order := parseList(orderStr)
		if len(order) == 0 {
			logrus.Infof("Empty LD_ENVIRONMENT_ORDER. Defaulting to %s.", strings.Join(flags.DefaultEnvironmentOrder, ","))
		} else {
			cfg.EnvironmentOrder = order
		}
	}

	return cfg, nil
}

func parseList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
