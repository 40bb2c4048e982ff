package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/y0ug/flagaudit/internal/flags"
	"github.com/y0ug/flagaudit/internal/launchdarkly"
	"github.com/y0ug/flagaudit/internal/scanner"
)

// FlagSource returns every flag of a project.
type FlagSource interface {
	GetAllFlags(ctx context.Context, project string, opts launchdarkly.FetchOptions) ([]flags.Flag, error)
}

// AuditorConfig holds the collaborators of an Auditor.
type AuditorConfig struct {
	Source           FlagSource
	Scanner          *scanner.Scanner
	EnvironmentOrder []string
	Logger           logrus.FieldLogger
}

// Auditor ties the flag source, the staleness rules and the codebase
// scanner together.
type Auditor struct {
	Config AuditorConfig
	now    func() time.Time
}

// NewAuditor initializes a new Auditor.
func NewAuditor(config AuditorConfig) *Auditor {
	if config.Scanner == nil {
		config.Scanner = scanner.New()
	}
	if len(config.EnvironmentOrder) == 0 {
		config.EnvironmentOrder = flags.DefaultEnvironmentOrder
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	return &Auditor{Config: config, now: time.Now}
}

// Query selects the flags of a project an operation works on.
type Query struct {
	Project     string
	Months      int
	Maintainers []string
	Exclude     []string
	Fetch       launchdarkly.FetchOptions
}

// ScanOptions configures the codebase side of Scan.
type ScanOptions struct {
	Directory  string
	Extensions []string
}

// FlagReferences pairs an inactive flag with the places it is still used.
type FlagReferences struct {
	Flag      flags.Flag             `json:"flag"`
	Locations []scanner.FileLocation `json:"locations"`
}

// ScanReport is the result of Scan. Flags keeps the classifier order and
// only holds flags referenced at least once.
type ScanReport struct {
	Project    string           `json:"project"`
	Directory  string           `json:"directory"`
	Months     int              `json:"months"`
	Extensions []string         `json:"extensions,omitempty"`
	Checked    int              `json:"checked"`
	Flags      []FlagReferences `json:"flags"`
}

// Stats summarizes the flags of a project.
type Stats struct {
	Project     string `json:"project"`
	Months      int    `json:"months"`
	Total       int    `json:"total"`
	Temporary   int    `json:"temporary"`
	Archived    int    `json:"archived"`
	Inactive    int    `json:"inactive"`
	InactiveOn  int    `json:"inactive_on"`
	InactiveOff int    `json:"inactive_off"`
}

// ListFlags returns every flag of the project, narrowed by maintainer and
// exclude list.
func (a *Auditor) ListFlags(ctx context.Context, q Query) ([]flags.Flag, error) {
	all, err := a.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return flags.ApplyCommonFilters(all, q.Maintainers, q.Exclude), nil
}

// InactiveFlags returns the temporary, non-archived flags untouched in every
// environment for q.Months months.
func (a *Auditor) InactiveFlags(ctx context.Context, q Query) ([]flags.Flag, error) {
	all, err := a.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return a.classify(all, q), nil
}

// Scan finds the inactive flags of the project that are still referenced in
// opts.Directory. The directory is checked before any flag is fetched.
func (a *Auditor) Scan(ctx context.Context, q Query, opts ScanOptions) (*ScanReport, error) {
	if err := scanner.ValidateRoot(opts.Directory); err != nil {
		return nil, err
	}

	inactive, err := a.InactiveFlags(ctx, q)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(inactive))
	for i, f := range inactive {
		keys[i] = f.Key
	}

	log := a.Config.Logger.WithFields(logrus.Fields{
		"project": q.Project,
		"path":    opts.Directory,
	})
	log.WithField("flags", len(keys)).Info("Checking inactive flags against codebase")

	found, err := a.Config.Scanner.Search(ctx, opts.Directory, keys, opts.Extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", opts.Directory, err)
	}

	report := &ScanReport{
		Project:    q.Project,
		Directory:  opts.Directory,
		Months:     q.Months,
		Extensions: opts.Extensions,
		Checked:    len(keys),
		Flags:      []FlagReferences{},
	}
	for _, f := range inactive {
		if locations, ok := found[f.Key]; ok {
			report.Flags = append(report.Flags, FlagReferences{Flag: f, Locations: locations})
		}
	}

	log.WithField("referenced", len(report.Flags)).Info("Codebase scan complete")
	return report, nil
}

// Stats counts the flags of the project and splits the inactive ones by the
// toggle state of their primary environment.
func (a *Auditor) Stats(ctx context.Context, q Query) (*Stats, error) {
	all, err := a.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Project: q.Project, Months: q.Months, Total: len(all)}
	for _, f := range all {
		if f.Temporary {
			stats.Temporary++
		}
		if f.Archived {
			stats.Archived++
		}
	}

	inactive := a.classify(all, q)
	off, on := flags.SplitByToggle(inactive, a.Config.EnvironmentOrder)
	stats.Inactive = len(inactive)
	stats.InactiveOn = len(on)
	stats.InactiveOff = len(off)
	return stats, nil
}

// SplitByToggle groups flags by the toggle state of their primary
// environment using the auditor's environment order.
func (a *Auditor) SplitByToggle(list []flags.Flag) (off, on []flags.Flag) {
	return flags.SplitByToggle(list, a.Config.EnvironmentOrder)
}

func (a *Auditor) classify(all []flags.Flag, q Query) []flags.Flag {
	return flags.GetInactiveFlagsAt(a.now(), all, q.Months, q.Maintainers, q.Exclude)
}

func (a *Auditor) fetch(ctx context.Context, q Query) ([]flags.Flag, error) {
	all, err := a.Config.Source.GetAllFlags(ctx, q.Project, q.Fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flags for project %s: %w", q.Project, err)
	}
	a.Config.Logger.WithFields(logrus.Fields{
		"project": q.Project,
		"count":   len(all),
	}).Debug("Fetched flags")
	return all, nil
}
