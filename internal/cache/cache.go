package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Store holds raw flag payloads keyed by project name.
type Store interface {
	// Get returns the cached payload for key. The boolean is false when the
	// entry is missing, expired or unreadable.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key with the current time.
	Set(ctx context.Context, key string, data []byte) error

	// List returns every stored entry, expired ones included.
	List(ctx context.Context) ([]Entry, error)

	// Clear removes every cached entry.
	Clear(ctx context.Context) error

	// Location describes where the entries live (directory, file or address).
	Location() string

	// TTL is the time-to-live applied to entries.
	TTL() time.Duration

	Close(ctx context.Context) error
}

// Entry describes a cached payload.
type Entry struct {
	Key       string    `json:"key"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Age returns how long ago the entry was written.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CachedAt)
}

var ErrUnsupportedType = errors.New("unsupported cache type")

// record is the serialised form shared by the backends. Timestamp is in
// fractional Unix seconds.
type record struct {
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func newRecord(now time.Time, data []byte) record {
	return record{
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
		Data:      json.RawMessage(data),
	}
}

func (r record) cachedAt() time.Time {
	sec := int64(r.Timestamp)
	nsec := int64((r.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// fresh reports whether the record is within ttl at now and carries data.
func (r record) fresh(now time.Time, ttl time.Duration) bool {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return false
	}
	return now.Sub(r.cachedAt()) <= ttl
}

func decodeRecord(raw []byte) (record, error) {
	var r record
	err := json.Unmarshal(raw, &r)
	return r, err
}

// SanitizeKey makes a project name safe to use as a file name or db key.
func SanitizeKey(key string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(key)
}
