package flags

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// UnknownMaintainer is used when a flag payload carries no maintainer name.
const UnknownMaintainer = "Unknown"

// ErrInvalidPayload is returned when the top-level flags payload is malformed.
var ErrInvalidPayload = errors.New("invalid flags payload")

// ParseError reports a flag item that cannot be turned into a Flag.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse flag: field %q: %s", e.Field, e.Reason)
}

// Maintainer represents the member responsible for a flag.
type Maintainer struct {
	FirstName string  `json:"firstName"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// Environment is the state of a flag in a single deployment environment.
type Environment struct {
	Name         string    `json:"name"`
	IsOn         bool      `json:"on"`
	LastModified time.Time `json:"lastModified"`
}

// Flag is a feature flag and its per-environment state.
type Flag struct {
	Key          string                 `json:"key"`
	Name         string                 `json:"name"`
	Archived     bool                   `json:"archived"`
	Temporary    bool                   `json:"temporary"`
	CreationDate time.Time              `json:"creationDate"`
	Maintainer   Maintainer             `json:"maintainer"`
	Environments map[string]Environment `json:"environments"`
}

// MostRecentModification returns the latest LastModified across all
// environments. The boolean is false when the flag has no environments.
func (f Flag) MostRecentModification() (time.Time, bool) {
	var latest time.Time
	found := false
	for _, env := range f.Environments {
		if !found || env.LastModified.After(latest) {
			latest = env.LastModified
			found = true
		}
	}
	return latest, found
}

// IsInactiveSince reports whether no environment was modified at or after
// threshold. A flag without environments is always inactive.
func (f Flag) IsInactiveSince(threshold time.Time) bool {
	for _, env := range f.Environments {
		if !env.LastModified.Before(threshold) {
			return false
		}
	}
	return true
}

// IsOnIn reports the toggle state of the flag in the named environment.
func (f Flag) IsOnIn(env string) bool {
	e, ok := f.Environments[env]
	return ok && e.IsOn
}

// ParseFlagsResponse decodes a `{"items": [...]}` payload into flags.
func ParseFlagsResponse(data []byte) ([]Flag, error) {
	var payload map[string]any
	if err := decodeJSON(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	rawItems, ok := payload["items"]
	if !ok {
		return nil, fmt.Errorf("%w: missing items", ErrInvalidPayload)
	}
	items, ok := rawItems.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: items is not a list", ErrInvalidPayload)
	}

	result := make([]Flag, 0, len(items))
	for i, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d: %w", i, &ParseError{Field: "item", Reason: "not an object"})
		}
		flag, err := ParseFlag(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		result = append(result, flag)
	}
	return result, nil
}

// ParseFlagJSON decodes a single raw flag object.
func ParseFlagJSON(data []byte) (Flag, error) {
	var raw map[string]any
	if err := decodeJSON(data, &raw); err != nil {
		return Flag{}, &ParseError{Field: "flag", Reason: err.Error()}
	}
	return ParseFlag(raw)
}

// ParseFlag builds a Flag from a decoded API object. Only the key is
// mandatory; timestamps must be numeric when present.
func ParseFlag(raw map[string]any) (Flag, error) {
	keyValue, ok := raw["key"]
	if !ok || keyValue == nil {
		return Flag{}, &ParseError{Field: "key", Reason: "missing"}
	}
	key, ok := keyValue.(string)
	if !ok {
		return Flag{}, &ParseError{Field: "key", Reason: "not a string"}
	}

	creationDate, err := millisField(raw, "creationDate", "creationDate")
	if err != nil {
		return Flag{}, err
	}

	environments := make(map[string]Environment)
	if envsValue := raw["environments"]; envsValue != nil {
		rawEnvs, ok := envsValue.(map[string]any)
		if !ok {
			return Flag{}, &ParseError{Field: "environments", Reason: "not an object"}
		}
		for name, value := range rawEnvs {
			envData, ok := value.(map[string]any)
			if !ok {
				return Flag{}, &ParseError{Field: "environments." + name, Reason: "not an object"}
			}
			env, err := parseEnvironment(name, envData)
			if err != nil {
				return Flag{}, err
			}
			environments[name] = env
		}
	}

	maintainerData, _ := raw["_maintainer"].(map[string]any)

	return Flag{
		Key:          key,
		Name:         stringField(raw, "name"),
		Archived:     boolField(raw, "archived"),
		Temporary:    boolField(raw, "temporary"),
		CreationDate: creationDate,
		Maintainer:   parseMaintainer(maintainerData),
		Environments: environments,
	}, nil
}

func parseMaintainer(raw map[string]any) Maintainer {
	m := Maintainer{FirstName: UnknownMaintainer}
	if v, ok := raw["firstName"].(string); ok {
		m.FirstName = v
	}
	if v, ok := raw["lastName"].(string); ok {
		m.LastName = &v
	}
	if v, ok := raw["email"].(string); ok {
		m.Email = &v
	}
	return m
}

func parseEnvironment(name string, raw map[string]any) (Environment, error) {
	lastModified, err := millisField(raw, "lastModified", "environments."+name+".lastModified")
	if err != nil {
		return Environment{}, err
	}
	return Environment{
		Name:         name,
		IsOn:         boolField(raw, "on"),
		LastModified: lastModified,
	}, nil
}

// millisField reads a millisecond epoch. Missing or null means epoch 0.
func millisField(raw map[string]any, key, field string) (time.Time, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return time.UnixMilli(0).UTC(), nil
	}

	var ms int64
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := strconv.ParseFloat(v.String(), 64)
			if ferr != nil {
				return time.Time{}, &ParseError{Field: field, Reason: "not a number"}
			}
			n = int64(f)
		}
		ms = n
	case float64:
		ms = int64(v)
	case int64:
		ms = v
	case int:
		ms = int64(v)
	default:
		return time.Time{}, &ParseError{Field: field, Reason: fmt.Sprintf("not a number: %v", value)}
	}
	return time.UnixMilli(ms).UTC(), nil
}

func stringField(raw map[string]any, field string) string {
	v, _ := raw[field].(string)
	return v
}

func boolField(raw map[string]any, field string) bool {
	v, _ := raw[field].(bool)
	return v
}

// decodeJSON keeps numbers as json.Number so millisecond timestamps survive
// without float rounding.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
