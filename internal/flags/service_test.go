package flags

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(days int) time.Time {
	return testNow.Add(-time.Duration(days) * 24 * time.Hour)
}

func makeFlag(key string, maintainer string, envAges map[string]int) Flag {
	envs := make(map[string]Environment, len(envAges))
	for name, age := range envAges {
		envs[name] = Environment{Name: name, LastModified: daysAgo(age)}
	}
	return Flag{
		Key:          key,
		Temporary:    true,
		Maintainer:   Maintainer{FirstName: maintainer},
		Environments: envs,
	}
}

func keys(flags []Flag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, f.Key)
	}
	return out
}

func TestInactivityThresholdUsesThirtyDayMonths(t *testing.T) {
	got := InactivityThreshold(testNow, 3)
	assert.Equal(t, testNow.Add(-90*24*time.Hour), got)

	got = InactivityThreshold(testNow, 12)
	assert.Equal(t, testNow.Add(-360*24*time.Hour), got)
}

func TestInactivityThresholdHugeMonths(t *testing.T) {
	assert.True(t, InactivityThreshold(testNow, 4000).IsZero())
	assert.True(t, InactivityThreshold(testNow, math.MaxInt).IsZero())
	assert.True(t, InactivityThreshold(testNow, 3000).Before(testNow))

	recent := Flag{
		Key:       "recent",
		Temporary: true,
		Environments: map[string]Environment{
			"production": {Name: "production", LastModified: testNow.Add(-time.Hour)},
		},
	}
	for _, months := range []int{3000, 3600, 4000} {
		got := GetInactiveFlagsAt(testNow, []Flag{recent}, months, nil, nil)
		assert.Empty(t, got, "months=%d", months)
	}
}

func TestGetInactiveFlagsAllEnvironmentsMustBeStale(t *testing.T) {
	flags := []Flag{
		makeFlag("all-old", "Ada", map[string]int{"production": 200, "staging": 120}),
		makeFlag("one-recent", "Ada", map[string]int{"production": 200, "staging": 10}),
		makeFlag("boundary", "Ada", map[string]int{"production": 90}),
		makeFlag("just-past", "Ada", map[string]int{"production": 91}),
	}

	got := GetInactiveFlagsAt(testNow, flags, 3, nil, nil)
	assert.Equal(t, []string{"all-old", "just-past"}, keys(got))
}

func TestGetInactiveFlagsEmptyEnvironments(t *testing.T) {
	flags := []Flag{makeFlag("no-envs", "Ada", nil)}

	for _, months := range []int{0, 1, 6, 120} {
		got := GetInactiveFlagsAt(testNow, flags, months, nil, nil)
		assert.Equal(t, []string{"no-envs"}, keys(got), "months=%d", months)
	}
}

func TestGetInactiveFlagsArchivedTemporaryGate(t *testing.T) {
	base := makeFlag("candidate", "Ada", map[string]int{"production": 400})

	archived := base
	archived.Key = "archived"
	archived.Archived = true

	permanent := base
	permanent.Key = "permanent"
	permanent.Temporary = false

	both := base
	both.Key = "archived-permanent"
	both.Archived = true
	both.Temporary = false

	got := GetInactiveFlagsAt(testNow, []Flag{base, archived, permanent, both}, 3, nil, nil)
	assert.Equal(t, []string{"candidate"}, keys(got))
}

func TestGetInactiveFlagsMaintainerFilter(t *testing.T) {
	flags := []Flag{
		makeFlag("ada-flag", "Ada", map[string]int{"production": 200}),
		makeFlag("bob-flag", "Bob", map[string]int{"production": 200}),
		makeFlag("unknown-flag", UnknownMaintainer, map[string]int{"production": 200}),
	}

	assert.Equal(t, []string{"ada-flag", "bob-flag", "unknown-flag"}, keys(GetInactiveFlagsAt(testNow, flags, 3, nil, nil)))
	assert.Equal(t, []string{"ada-flag", "bob-flag", "unknown-flag"}, keys(GetInactiveFlagsAt(testNow, flags, 3, []string{}, nil)))
	assert.Equal(t, []string{"bob-flag"}, keys(GetInactiveFlagsAt(testNow, flags, 3, []string{"Bob"}, nil)))
	assert.Empty(t, GetInactiveFlagsAt(testNow, flags, 3, []string{"bob"}, nil))
}

func TestGetInactiveFlagsExcludeCommutes(t *testing.T) {
	flags := []Flag{
		makeFlag("k", "Ada", map[string]int{"production": 200}),
		makeFlag("other", "Ada", map[string]int{"production": 200}),
		makeFlag("fresh", "Ada", map[string]int{"production": 1}),
	}

	got := GetInactiveFlagsAt(testNow, flags, 3, nil, []string{"k"})
	assert.Equal(t, []string{"other"}, keys(got))

	excludedFirst := GetInactiveFlagsAt(testNow, FilterByExcludeList(flags, []string{"k"}), 3, nil, nil)
	assert.Equal(t, keys(got), keys(excludedFirst))

	assert.Equal(t, []string{"other"}, keys(GetInactiveFlagsAt(testNow, flags, 3, nil, []string{"k", "fresh", "missing"})))
}

func TestGetInactiveFlagsDoesNotFilterByToggle(t *testing.T) {
	on := makeFlag("on-flag", "Ada", map[string]int{"production": 200})
	on.Environments["production"] = Environment{Name: "production", IsOn: true, LastModified: daysAgo(200)}
	off := makeFlag("off-flag", "Ada", map[string]int{"production": 200})

	got := GetInactiveFlagsAt(testNow, []Flag{on, off}, 3, nil, nil)
	require.Len(t, got, 2)

	offGroup, onGroup := SplitByToggle(got, DefaultEnvironmentOrder)
	assert.Equal(t, []string{"off-flag"}, keys(offGroup))
	assert.Equal(t, []string{"on-flag"}, keys(onGroup))
}

func TestGetInactiveFlagsDoesNotMutateInput(t *testing.T) {
	flags := []Flag{
		makeFlag("a", "Ada", map[string]int{"production": 1}),
		makeFlag("b", "Ada", map[string]int{"production": 200}),
	}
	got := GetInactiveFlagsAt(testNow, flags, 3, nil, nil)

	require.Len(t, got, 1)
	assert.Equal(t, []string{"a", "b"}, keys(flags))
}

func TestGetInactiveFlagsUsesWallClock(t *testing.T) {
	stale := Flag{
		Key:       "stale-flag",
		Temporary: true,
		Environments: map[string]Environment{
			"production": {Name: "production", LastModified: time.Now().Add(-200 * 24 * time.Hour)},
		},
	}
	got := GetInactiveFlags([]Flag{stale}, 3, nil, nil)
	assert.Equal(t, []string{"stale-flag"}, keys(got))
}

func TestApplyCommonFilters(t *testing.T) {
	flags := []Flag{
		makeFlag("a", "Ada", nil),
		makeFlag("b", "Bob", nil),
		makeFlag("c", "Ada", nil),
	}

	assert.Equal(t, []string{"a", "b", "c"}, keys(ApplyCommonFilters(flags, nil, nil)))
	assert.Equal(t, []string{"a"}, keys(ApplyCommonFilters(flags, []string{"Ada"}, []string{"c"})))
}
