package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL matches one hour of reuse between API fetches.
	DefaultTTL = time.Hour
	// AppDirName is the directory created under the user cache dir.
	AppDirName = "launchdarkly-audit"
)

// Config holds the cache-related configuration.
type Config struct {
	Type      string
	Dir       string
	Path      string
	TTL       time.Duration
	RedisAddr string
	RedisPass string
	RedisDB   int
}

// LoadConfig loads cache configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Type: os.Getenv("CACHE_TYPE"),
		Dir:  os.Getenv("CACHE_DIR"),
		TTL:  DefaultTTL,
	}
	if cfg.Type == "" {
		cfg.Type = "file"
	}

	if ttlStr := os.Getenv("CACHE_TTL_SECONDS"); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil || ttl < 0 {
			return nil, fmt.Errorf("invalid CACHE_TTL_SECONDS value: %q", ttlStr)
		}
		cfg.TTL = time.Duration(ttl) * time.Second
	}

	if cfg.Dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
			logrus.WithError(err).Debugf("No user cache directory, using %s", base)
		}
		cfg.Dir = filepath.Join(base, AppDirName)
	}

	switch cfg.Type {
	case "file", "none":
	case "bolt":
		cfg.Path = os.Getenv("CACHE_PATH")
		if cfg.Path == "" {
			cfg.Path = filepath.Join(cfg.Dir, "cache.db")
		}
	case "redis":
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required for the redis cache")
		}
		cfg.RedisPass = os.Getenv("REDIS_PASSWORD")
		if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
			db, err := strconv.Atoi(dbStr)
			if err != nil {
				return nil, fmt.Errorf("invalid REDIS_DB value: %v", err)
			}
			cfg.RedisDB = db
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}

	return cfg, nil
}

// NewStore opens the backend selected by cfg.Type.
func NewStore(cfg *Config, logger logrus.FieldLogger) (Store, error) {
	switch cfg.Type {
	case "file":
		return NewFileStore(cfg.Dir, cfg.TTL, logger)
	case "bolt":
		return NewBoltStore(cfg.Path, cfg.TTL, logger)
	case "redis":
		return NewRedisStore(cfg, logger)
	case "none":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}
