package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

var payloadsBucket = []byte("FlagPayloads")

// BoltStore keeps payloads in a single bbolt file.
type BoltStore struct {
	db     *bbolt.DB
	path   string
	ttl    time.Duration
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewBoltStore opens (or creates) the bbolt database at path.
func NewBoltStore(path string, ttl time.Duration, logger logrus.FieldLogger) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt cache: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	store := &BoltStore{db: db, path: path, ttl: ttl, logger: logger, now: time.Now}
	if err := store.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Initialize sets up the payload bucket.
func (b *BoltStore) Initialize() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(payloadsBucket); err != nil {
			return fmt.Errorf("create FlagPayloads bucket: %v", err)
		}
		return nil
	})
}

// Get returns the payload for key when a fresh entry exists.
func (b *BoltStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var raw []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(payloadsBucket)
		if bucket == nil {
			return fmt.Errorf("FlagPayloads bucket does not exist")
		}
		if v := bucket.Get([]byte(SanitizeKey(key))); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		b.logger.WithError(err).WithField("key", key).Warn("Ignoring corrupt cache entry")
		return nil, false, nil
	}
	if !rec.fresh(b.now(), b.ttl) {
		return nil, false, nil
	}
	return rec.Data, true, nil
}

// Set stores data for key.
func (b *BoltStore) Set(ctx context.Context, key string, data []byte) error {
	encoded, err := json.Marshal(newRecord(b.now(), data))
	if err != nil {
		return fmt.Errorf("failed to marshal cache record: %w", err)
	}

	err = b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(payloadsBucket)
		if bucket == nil {
			return fmt.Errorf("FlagPayloads bucket does not exist")
		}
		return bucket.Put([]byte(SanitizeKey(key)), encoded)
	})
	if err != nil {
		return fmt.Errorf("failed to write bolt cache: %w", err)
	}
	return nil
}

// List returns every entry in key order.
func (b *BoltStore) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(payloadsBucket)
		if bucket == nil {
			return fmt.Errorf("FlagPayloads bucket does not exist")
		}
		return bucket.ForEach(func(k, v []byte) error {
			rec, err := decodeRecord(v)
			if err != nil {
				b.logger.WithError(err).Warnf("Failed to unmarshal cache entry: %s", string(k))
				return nil
			}
			cachedAt := rec.cachedAt()
			entries = append(entries, Entry{
				Key:       string(k),
				CachedAt:  cachedAt,
				ExpiresAt: cachedAt.Add(b.ttl),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear drops and recreates the payload bucket.
func (b *BoltStore) Clear(ctx context.Context) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(payloadsBucket); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("delete FlagPayloads bucket: %v", err)
		}
		_, err := tx.CreateBucket(payloadsBucket)
		return err
	})
}

func (b *BoltStore) Location() string   { return b.path }
func (b *BoltStore) TTL() time.Duration { return b.ttl }

// Close closes the underlying database file.
func (b *BoltStore) Close(ctx context.Context) error {
	return b.db.Close()
}
