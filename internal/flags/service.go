package flags

import (
	"math"
	"time"
)

// DaysPerMonth is the fixed month length used for inactivity thresholds.
// Thresholds are not calendar-accurate on purpose.
const DaysPerMonth = 30

// maxThresholdMonths is the largest month count whose span fits in a
// time.Duration.
const maxThresholdMonths = math.MaxInt64 / int64(DaysPerMonth*24*time.Hour)

// InactivityThreshold returns now minus months*30 days. Spans too large for a
// time.Duration return the zero time, which no modification precedes.
func InactivityThreshold(now time.Time, months int) time.Time {
	if int64(months) > maxThresholdMonths {
		return time.Time{}
	}
	return now.Add(-time.Duration(months*DaysPerMonth) * 24 * time.Hour)
}

// FilterByArchived keeps flags whose archived status equals archived.
func FilterByArchived(flags []Flag, archived bool) []Flag {
	return filter(flags, func(f Flag) bool { return f.Archived == archived })
}

// FilterByTemporary keeps flags whose temporary status equals temporary.
func FilterByTemporary(flags []Flag, temporary bool) []Flag {
	return filter(flags, func(f Flag) bool { return f.Temporary == temporary })
}

// FilterByInactivity keeps flags not modified in any environment since threshold.
func FilterByInactivity(flags []Flag, threshold time.Time) []Flag {
	return filter(flags, func(f Flag) bool { return f.IsInactiveSince(threshold) })
}

// FilterByMaintainer keeps flags whose maintainer first name is listed.
func FilterByMaintainer(flags []Flag, maintainers []string) []Flag {
	allowed := toSet(maintainers)
	return filter(flags, func(f Flag) bool {
		_, ok := allowed[f.Maintainer.FirstName]
		return ok
	})
}

// FilterByExcludeList drops flags whose key is listed.
func FilterByExcludeList(flags []Flag, exclude []string) []Flag {
	excluded := toSet(exclude)
	return filter(flags, func(f Flag) bool {
		_, ok := excluded[f.Key]
		return !ok
	})
}

// GetInactiveFlags returns the non-archived temporary flags that have not been
// modified in any environment for the given number of months.
func GetInactiveFlags(flags []Flag, months int, maintainers, exclude []string) []Flag {
	return GetInactiveFlagsAt(time.Now(), flags, months, maintainers, exclude)
}

// GetInactiveFlagsAt is GetInactiveFlags evaluated against a fixed clock.
func GetInactiveFlagsAt(now time.Time, flags []Flag, months int, maintainers, exclude []string) []Flag {
	result := FilterByArchived(flags, false)
	result = FilterByTemporary(result, true)
	result = FilterByInactivity(result, InactivityThreshold(now, months))
	return ApplyCommonFilters(result, maintainers, exclude)
}

// ApplyCommonFilters applies the optional maintainer and exclude filters.
// Empty lists leave the input untouched.
func ApplyCommonFilters(flags []Flag, maintainers, exclude []string) []Flag {
	result := flags
	if len(maintainers) > 0 {
		result = FilterByMaintainer(result, maintainers)
	}
	if len(exclude) > 0 {
		result = FilterByExcludeList(result, exclude)
	}
	return result
}

// SplitByToggle groups flags by their state in the primary environment
// resolved with order. Both groups keep the input order.
func SplitByToggle(flags []Flag, order []string) (off, on []Flag) {
	for _, f := range flags {
		if f.IsOnIn(PrimaryEnvironment(f, order)) {
			on = append(on, f)
		} else {
			off = append(off, f)
		}
	}
	return off, on
}

func filter(flags []Flag, keep func(Flag) bool) []Flag {
	result := make([]Flag, 0, len(flags))
	for _, f := range flags {
		if keep(f) {
			result = append(result, f)
		}
	}
	return result
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
