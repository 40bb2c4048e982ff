package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// FileStore keeps one JSON file per project in a directory.
type FileStore struct {
	dir    string
	ttl    time.Duration
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, ttl time.Duration, logger logrus.FieldLogger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileStore{dir: dir, ttl: ttl, logger: logger, now: time.Now}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, SanitizeKey(key)+".json")
}

// Get returns the payload for key when a fresh entry exists.
func (f *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := os.ReadFile(f.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.WithError(err).WithField("key", key).Warn("Failed to read cache file")
		}
		return nil, false, nil
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		f.logger.WithError(err).WithField("key", key).Warn("Ignoring corrupt cache file")
		return nil, false, nil
	}
	if !rec.fresh(f.now(), f.ttl) {
		return nil, false, nil
	}
	return rec.Data, true, nil
}

// Set writes data for key. Write failures are logged and ignored.
func (f *FileStore) Set(ctx context.Context, key string, data []byte) error {
	encoded, err := json.Marshal(newRecord(f.now(), data))
	if err != nil {
		return fmt.Errorf("failed to marshal cache record: %w", err)
	}
	if err := os.WriteFile(f.path(key), encoded, 0o644); err != nil {
		f.logger.WithError(err).WithField("key", key).Warn("Failed to write cache file")
	}
	return nil
}

// List returns the entries found in the cache directory sorted by key.
func (f *FileStore) List(ctx context.Context) ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var entries []Entry
	for _, match := range matches {
		raw, err := os.ReadFile(match)
		if err != nil {
			continue
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			continue
		}
		cachedAt := rec.cachedAt()
		entries = append(entries, Entry{
			Key:       strings.TrimSuffix(filepath.Base(match), ".json"),
			CachedAt:  cachedAt,
			ExpiresAt: cachedAt.Add(f.ttl),
		})
	}
	return entries, nil
}

// Clear removes the cache files. Other files in the directory are kept.
func (f *FileStore) Clear(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			f.logger.WithError(err).WithField("path", match).Warn("Failed to remove cache file")
		}
	}
	return nil
}

func (f *FileStore) Location() string   { return f.dir }
func (f *FileStore) TTL() time.Duration { return f.ttl }

func (f *FileStore) Close(ctx context.Context) error { return nil }

// NopStore never caches anything.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NopStore) Set(context.Context, string, []byte) error         { return nil }
func (NopStore) List(context.Context) ([]Entry, error)             { return nil, nil }
func (NopStore) Clear(context.Context) error                       { return nil }
func (NopStore) Location() string                                  { return "disabled" }
func (NopStore) TTL() time.Duration                                { return 0 }
func (NopStore) Close(context.Context) error                       { return nil }
