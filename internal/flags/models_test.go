package flags

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagFull(t *testing.T) {
	raw := []byte(`{
		"key": "new-checkout",
		"name": "New checkout",
		"archived": false,
		"temporary": true,
		"creationDate": 1700000000123,
		"_maintainer": {"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"},
		"environments": {
			"production": {"on": true, "lastModified": 1710000000456},
			"staging": {"on": false, "lastModified": 1720000000789}
		}
	}`)

	flag, err := ParseFlagJSON(raw)
	require.NoError(t, err)

	assert.Equal(t, "new-checkout", flag.Key)
	assert.Equal(t, "New checkout", flag.Name)
	assert.False(t, flag.Archived)
	assert.True(t, flag.Temporary)
	assert.Equal(t, time.UnixMilli(1700000000123).UTC(), flag.CreationDate)
	assert.Equal(t, "Ada", flag.Maintainer.FirstName)
	require.NotNil(t, flag.Maintainer.LastName)
	assert.Equal(t, "Lovelace", *flag.Maintainer.LastName)
	require.NotNil(t, flag.Maintainer.Email)
	assert.Equal(t, "ada@example.com", *flag.Maintainer.Email)

	require.Len(t, flag.Environments, 2)
	prod := flag.Environments["production"]
	assert.Equal(t, "production", prod.Name)
	assert.True(t, prod.IsOn)
	assert.Equal(t, int64(1710000000456), prod.LastModified.UnixMilli())
	assert.False(t, flag.Environments["staging"].IsOn)
}

func TestParseFlagDefaults(t *testing.T) {
	flag, err := ParseFlagJSON([]byte(`{"key": "bare", "environments": {"dev": {}}}`))
	require.NoError(t, err)

	assert.Equal(t, "", flag.Name)
	assert.False(t, flag.Archived)
	assert.False(t, flag.Temporary)
	assert.Equal(t, UnknownMaintainer, flag.Maintainer.FirstName)
	assert.Nil(t, flag.Maintainer.LastName)
	assert.Nil(t, flag.Maintainer.Email)
	assert.Equal(t, int64(0), flag.CreationDate.UnixMilli())

	dev := flag.Environments["dev"]
	assert.False(t, dev.IsOn)
	assert.Equal(t, int64(0), dev.LastModified.UnixMilli())
}

func TestParseFlagMissingKey(t *testing.T) {
	_, err := ParseFlagJSON([]byte(`{"name": "no key"}`))
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "key", perr.Field)
}

func TestParseFlagMalformedEnvironments(t *testing.T) {
	tests := []struct {
		payload string
		field   string
	}{
		{`{"key": "k", "environments": ["production"]}`, "environments"},
		{`{"key": "k", "environments": "production"}`, "environments"},
		{`{"key": "k", "environments": {"production": true}}`, "environments.production"},
		{`{"key": "k", "environments": {"production": null}}`, "environments.production"},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			_, err := ParseFlagJSON([]byte(tt.payload))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.field, perr.Field)
			assert.Equal(t, "not an object", perr.Reason)
		})
	}

	flag, err := ParseFlagJSON([]byte(`{"key": "k", "environments": null}`))
	require.NoError(t, err)
	assert.Empty(t, flag.Environments)
}

func TestParseFlagNonNumericTimestamp(t *testing.T) {
	_, err := ParseFlagJSON([]byte(`{"key": "k", "environments": {"production": {"lastModified": "yesterday"}}}`))
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "environments.production.lastModified", perr.Field)

	_, err = ParseFlagJSON([]byte(`{"key": "k", "creationDate": true}`))
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "creationDate", perr.Field)
}

func TestParseFlagsResponse(t *testing.T) {
	flags, err := ParseFlagsResponse([]byte(`{"items": [{"key": "a"}, {"key": "b"}], "totalCount": 2}`))
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, "a", flags[0].Key)
	assert.Equal(t, "b", flags[1].Key)

	flags, err = ParseFlagsResponse([]byte(`{"items": []}`))
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestParseFlagsResponseInvalidPayload(t *testing.T) {
	cases := map[string]string{
		"missing items": `{"totalCount": 0}`,
		"items not list": `{"items": {"key": "a"}}`,
		"not json":       `<html>`,
		"top-level list": `[{"key": "a"}]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFlagsResponse([]byte(payload))
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestParseFlagsResponseItemError(t *testing.T) {
	_, err := ParseFlagsResponse([]byte(`{"items": [{"key": "a"}, {"name": "missing"}]}`))
	require.Error(t, err)

	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
	assert.Contains(t, err.Error(), "item 1")
}

func TestMostRecentModification(t *testing.T) {
	flag, err := ParseFlagJSON([]byte(`{
		"key": "k",
		"environments": {
			"production": {"lastModified": 1690000000001},
			"staging": {"lastModified": 1699999999999},
			"dev": {"lastModified": 1600000000000}
		}
	}`))
	require.NoError(t, err)

	latest, ok := flag.MostRecentModification()
	require.True(t, ok)
	assert.Equal(t, int64(1699999999999), latest.UnixMilli())

	_, ok = Flag{Key: "empty"}.MostRecentModification()
	assert.False(t, ok)
}

func TestIsInactiveSince(t *testing.T) {
	threshold := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	old := Environment{LastModified: threshold.Add(-time.Hour)}
	recent := Environment{LastModified: threshold}

	assert.True(t, Flag{}.IsInactiveSince(threshold))
	assert.True(t, Flag{Environments: map[string]Environment{"a": old, "b": old}}.IsInactiveSince(threshold))
	assert.False(t, Flag{Environments: map[string]Environment{"a": old, "b": recent}}.IsInactiveSince(threshold))
}
