package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefix = "flagaudit:payload:"

// RedisStore keeps payloads in Redis with a native expiry.
type RedisStore struct {
	client *redis.Client
	addr   string
	ttl    time.Duration
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewRedisStore connects to the configured Redis server.
func NewRedisStore(cfg *Config, logger logrus.FieldLogger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &RedisStore{client: rdb, addr: cfg.RedisAddr, ttl: cfg.TTL, logger: logger, now: time.Now}, nil
}

func redisKey(key string) string {
	return redisKeyPrefix + SanitizeKey(key)
}

// Get returns the payload for key when a fresh entry exists.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	rec, err := decodeRecord(val)
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Ignoring corrupt cache entry")
		return nil, false, nil
	}
	if !rec.fresh(r.now(), r.ttl) {
		return nil, false, nil
	}
	return rec.Data, true, nil
}

// Set stores data for key and lets Redis expire it after the TTL.
func (r *RedisStore) Set(ctx context.Context, key string, data []byte) error {
	encoded, err := json.Marshal(newRecord(r.now(), data))
	if err != nil {
		return fmt.Errorf("failed to marshal cache record: %w", err)
	}
	return r.client.Set(ctx, redisKey(key), encoded, r.ttl).Err()
}

// List returns the live entries sorted by key.
func (r *RedisStore) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		rec, err := decodeRecord(val)
		if err != nil {
			continue
		}
		cachedAt := rec.cachedAt()
		entries = append(entries, Entry{
			Key:       strings.TrimPrefix(key, redisKeyPrefix),
			CachedAt:  cachedAt,
			ExpiresAt: cachedAt.Add(r.ttl),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Clear removes every payload key.
func (r *RedisStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *RedisStore) Location() string   { return "redis://" + r.addr }
func (r *RedisStore) TTL() time.Duration { return r.ttl }

// Close closes the Redis client connection.
func (r *RedisStore) Close(ctx context.Context) error {
	return r.client.Close()
}
