package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/y0ug/flagaudit/internal/audit"
	"github.com/y0ug/flagaudit/internal/cache"
	"github.com/y0ug/flagaudit/internal/launchdarkly"
	"github.com/y0ug/flagaudit/internal/notifications"
	"github.com/y0ug/flagaudit/internal/report"
	"github.com/y0ug/flagaudit/internal/scanner"
)

// globalOptions holds the flags shared by every command.
type globalOptions struct {
	project       string
	baseURL       string
	cacheTTL      int
	noCache       bool
	overrideCache bool
	output        string
	debug         bool
}

// app carries the loaded configuration from PersistentPreRunE to the
// commands.
type app struct {
	opts     globalOptions
	logger   *logrus.Logger
	ldCfg    *launchdarkly.Config
	cacheCfg *cache.Config
	auditCfg *audit.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "flagaudit [command]",
		Short:         "LaunchDarkly feature flag audit tool",
		Long:          "Identify inactive temporary flags and find their references in your codebase.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("no command specified, use --help for available commands")
		},
	}
	rootCmd.SetVersionTemplate("flagaudit version {{.Version}}\n")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.opts.project, "project", "p", "", "LaunchDarkly project name (default $LD_PROJECT or \"default\")")
	pf.StringVar(&a.opts.baseURL, "base-url", "", "LaunchDarkly base URL (default $LD_BASE_URL or "+launchdarkly.DefaultBaseURL+")")
	pf.IntVar(&a.opts.cacheTTL, "cache-ttl", 0, "Cache TTL in seconds (default $CACHE_TTL_SECONDS or 3600)")
	pf.BoolVar(&a.opts.noCache, "no-cache", false, "Bypass cache for this run")
	pf.BoolVar(&a.opts.overrideCache, "override-cache", false, "Force refresh and rewrite cache")
	pf.StringVarP(&a.opts.output, "output", "o", "text", "Output format: text or json")
	pf.BoolVar(&a.opts.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newListCmd(a),
		newInactiveCmd(a),
		newScanCmd(a),
		newStatsCmd(a),
		newCacheCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// init loads .env and the package configurations, then applies the flags
// that override them.
func (a *app) init(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found. Proceeding with environment variables.")
	}

	a.logger = newLogger(cmd, a.opts.debug)

	switch a.opts.output {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format %q, expected text or json", a.opts.output)
	}

	var err error
	if a.ldCfg, err = launchdarkly.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load LaunchDarkly configuration: %w", err)
	}
	if a.cacheCfg, err = cache.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load cache configuration: %w", err)
	}
	if a.auditCfg, err = audit.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load audit configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		a.ldCfg.BaseURL = strings.TrimRight(a.opts.baseURL, "/")
	}
	if flags.Changed("cache-ttl") {
		if a.opts.cacheTTL < 0 {
			return fmt.Errorf("--cache-ttl must not be negative")
		}
		a.cacheCfg.TTL = time.Duration(a.opts.cacheTTL) * time.Second
	}
	if a.opts.project == "" {
		a.opts.project = a.auditCfg.Project
	}
	return nil
}

func newLogger(cmd *cobra.Command, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())

	if os.Getenv("LOG_FORMAT") == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level := logrus.InfoLevel
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		parsed, err := logrus.ParseLevel(levelStr)
		if err != nil {
			logger.Warnf("Invalid LOG_LEVEL %q. Defaulting to info.", levelStr)
		} else {
			level = parsed
		}
	}
	if debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}

func (a *app) fetchOptions() launchdarkly.FetchOptions {
	return launchdarkly.FetchOptions{UseCache: !a.opts.noCache, OverrideCache: a.opts.overrideCache}
}

// openStore opens the configured cache. A run that neither reads nor writes
// the cache gets a NopStore.
func (a *app) openStore() (cache.Store, error) {
	if a.opts.noCache && !a.opts.overrideCache {
		return cache.NopStore{}, nil
	}
	store, err := cache.NewStore(a.cacheCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return store, nil
}

// newAuditor wires the cache, the API client and the scanner. The returned
// store must be closed by the caller.
func (a *app) newAuditor(scanOpts ...scanner.Option) (*audit.Auditor, *launchdarkly.Client, cache.Store, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, nil, err
	}
	client := launchdarkly.NewClient(a.ldCfg, store, a.logger)

	scanOpts = append([]scanner.Option{scanner.WithLogger(a.logger)}, scanOpts...)
	auditor := audit.NewAuditor(audit.AuditorConfig{
		Source:           client,
		Scanner:          scanner.New(scanOpts...),
		EnvironmentOrder: a.auditCfg.EnvironmentOrder,
		Logger:           a.logger,
	})
	return auditor, client, store, nil
}

func (a *app) reportOptions(months int) report.Options {
	return report.Options{
		Project:          a.opts.project,
		BaseURL:          a.ldCfg.BaseURL,
		Months:           months,
		EnvironmentOrder: a.auditCfg.EnvironmentOrder,
	}
}

func (a *app) jsonOutput() bool {
	return a.opts.output == "json"
}

// filterOptions are the selection flags of list, inactive, scan and stats.
type filterOptions struct {
	months      int
	maintainers []string
	exclude     []string
	excludeFile string
}

func addFilterFlags(cmd *cobra.Command, f *filterOptions, withMonths bool) {
	if withMonths {
		cmd.Flags().IntVarP(&f.months, "months", "m", audit.DefaultMonths, "Inactivity threshold in months (default $AUDIT_MONTHS or 3)")
	}
	cmd.Flags().StringArrayVar(&f.maintainers, "maintainer", nil, "Filter by maintainer (comma-separated or repeated)")
	cmd.Flags().StringArrayVar(&f.exclude, "exclude", nil, "Exclude specific flag keys (comma-separated or repeated)")
	cmd.Flags().StringVar(&f.excludeFile, "exclude-file", "", "File with flag keys to exclude, one per line (default $AUDIT_EXCLUDE_FILE)")
}

// query builds the audit.Query of a command from its filter flags.
func (a *app) query(cmd *cobra.Command, f *filterOptions) (audit.Query, error) {
	q := audit.Query{
		Project:     a.opts.project,
		Months:      f.months,
		Maintainers: ParseCommaSeparated(f.maintainers),
		Exclude:     ParseCommaSeparated(f.exclude),
		Fetch:       a.fetchOptions(),
	}
	if m := cmd.Flags().Lookup("months"); m != nil && !m.Changed {
		q.Months = a.auditCfg.Months
	}
	if q.Months < 0 {
		return q, fmt.Errorf("--months must not be negative")
	}

	excludeFile := f.excludeFile
	if excludeFile == "" {
		excludeFile = a.auditCfg.ExcludeFile
	}
	if excludeFile != "" {
		keys, err := audit.ReadKeysFile(excludeFile)
		if err != nil {
			return q, fmt.Errorf("failed to read exclude file %s: %w", excludeFile, err)
		}
		q.Exclude = append(q.Exclude, keys...)
	}
	return q, nil
}

func (a *app) notifier() (*notifications.Notifier, error) {
	return notifications.NewNotifier(notifications.LoadNotificationConfig(), a.logger)
}

// ParseCommaSeparated flattens flag values that may hold comma-separated
// items, so both --ext=cs,js and --ext cs --ext js are accepted. Blank items
// are dropped; nil is returned when nothing remains.
func ParseCommaSeparated(values []string) []string {
	var result []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}
