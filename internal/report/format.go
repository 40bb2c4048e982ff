package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/y0ug/flagaudit/internal/flags"
	"github.com/y0ug/flagaudit/internal/launchdarkly"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

var (
	titleColor = color.New(color.Bold)
	keyColor   = color.New(color.FgCyan, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	okColor    = color.New(color.FgGreen)
	onColor    = color.New(color.FgGreen)
	offColor   = color.New(color.FgRed)
	dimColor   = color.New(color.Faint)
	pathColor  = color.New(color.FgYellow)
	lineColor  = color.New(color.FgCyan)
)

// Options carries what the writers need to render links and headings.
type Options struct {
	Project          string
	BaseURL          string
	Months           int
	EnvironmentOrder []string
}

func (o Options) order() []string {
	if len(o.EnvironmentOrder) == 0 {
		return flags.DefaultEnvironmentOrder
	}
	return o.EnvironmentOrder
}

// FlagURL links the flag in its primary environment.
func (o Options) FlagURL(f flags.Flag) string {
	return launchdarkly.FlagURL(o.BaseURL, o.Project, flags.PrimaryEnvironment(f, o.order()), f.Key)
}

// FormatDate renders t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// FormatLastModified renders the most recent modification of f, or "N/A"
// when no environment carries a timestamp.
func FormatLastModified(f flags.Flag) string {
	t, ok := f.MostRecentModification()
	if !ok || t.UnixMilli() <= 0 {
		return "N/A"
	}
	return FormatDate(t)
}

// FormatEnvStatus renders the toggle state of every environment, preferred
// ones first, e.g. "(production: OFF, staging: ON)".
func FormatEnvStatus(f flags.Flag, order []string, parentheses bool) string {
	return formatEnvStatus(f, order, parentheses, false)
}

func formatEnvStatus(f flags.Flag, order []string, parentheses, colored bool) string {
	if len(f.Environments) == 0 {
		if parentheses {
			return "(no environments)"
		}
		return "no environments"
	}

	names := flags.OrderedEnvironments(f, order)
	parts := make([]string, len(names))
	for i, name := range names {
		part := name + ": OFF"
		c := offColor
		if f.IsOnIn(name) {
			part = name + ": ON"
			c = onColor
		}
		if colored {
			part = c.Sprint(part)
		}
		parts[i] = part
	}

	result := strings.Join(parts, ", ")
	if parentheses {
		return "(" + result + ")"
	}
	return result
}

func formatAge(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	return fmt.Sprintf("%dh ago", minutes/60)
}

func formatExpiry(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("in %dm", minutes)
	}
	return fmt.Sprintf("in %dh", minutes/60)
}
