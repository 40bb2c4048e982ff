package launchdarkly

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/y0ug/flagaudit/internal/cache"
	"github.com/y0ug/flagaudit/internal/flags"
)

const flagsPath = "/api/v2/flags/{project}"

// FetchOptions controls how the cache is used for a single fetch.
type FetchOptions struct {
	// UseCache serves a fresh cached payload when one exists.
	UseCache bool
	// OverrideCache always fetches and rewrites the cached payload.
	OverrideCache bool
}

// DefaultFetchOptions reads from and writes to the cache.
var DefaultFetchOptions = FetchOptions{UseCache: true}

// Client fetches flags for a project, going through a cache.Store.
type Client struct {
	http   *resty.Client
	apiKey string
	store  cache.Store
	logger logrus.FieldLogger
}

// NewClient builds a client from cfg. A nil store disables caching.
func NewClient(cfg *Config, store cache.Store, logger logrus.FieldLogger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if store == nil {
		store = cache.NopStore{}
	}
	logger = logger.WithField("component", "launchdarkly")

	httpc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetLogger(logger)
	if cfg.APIKey != "" {
		httpc.SetHeader("Authorization", cfg.APIKey)
	}
	httpc.OnAfterResponse(newLogResponseMiddleware(logger))

	return &Client{
		http:   httpc,
		apiKey: cfg.APIKey,
		store:  store,
		logger: logger,
	}
}

// FlagURL builds the UI link of a flag from a base URL.
func FlagURL(baseURL, project, env, key string) string {
	return fmt.Sprintf("%s/%s/%s/features/%s", baseURL, project, env, key)
}

// GetAllFlags returns every flag of project.
func (c *Client) GetAllFlags(ctx context.Context, project string, opts FetchOptions) ([]flags.Flag, error) {
	_, items, err := c.fetch(ctx, project, opts)
	return items, err
}

// FetchRaw returns the flags payload of project, either from the cache or
// from the API.
func (c *Client) FetchRaw(ctx context.Context, project string, opts FetchOptions) ([]byte, error) {
	data, _, err := c.fetch(ctx, project, opts)
	return data, err
}

// fetch never caches a payload that fails to parse. A cached payload that
// fails to parse is treated as a miss.
func (c *Client) fetch(ctx context.Context, project string, opts FetchOptions) ([]byte, []flags.Flag, error) {
	if c.apiKey == "" {
		return nil, nil, ErrMissingAPIKey
	}
	log := c.logger.WithField("project", project)

	if opts.UseCache && !opts.OverrideCache {
		data, ok, err := c.store.Get(ctx, project)
		switch {
		case err != nil:
			log.WithError(err).Warn("Cache read failed, fetching from API")
		case ok:
			items, err := flags.ParseFlagsResponse(data)
			if err == nil {
				log.Debug("Serving flags from cache")
				return data, items, nil
			}
			log.WithError(err).Warn("Ignoring unparsable cached payload")
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("project", project).
		Get(flagsPath)
	if err != nil {
		return nil, nil, newNetworkError(err)
	}
	if resp.IsError() {
		return nil, nil, newStatusError(project, resp.StatusCode())
	}

	data := resp.Body()
	items, err := flags.ParseFlagsResponse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse flags for project %s: %w", project, err)
	}

	if opts.UseCache || opts.OverrideCache {
		if err := c.store.Set(ctx, project, data); err != nil {
			log.WithError(err).Warn("Failed to cache flags")
		}
	}
	return data, items, nil
}

func newLogResponseMiddleware(logger logrus.FieldLogger) resty.ResponseMiddleware {
	return func(_ *resty.Client, resp *resty.Response) error {
		entry := logger.WithFields(logrus.Fields{
			"method":   resp.Request.Method,
			"url":      resp.Request.URL,
			"status":   resp.StatusCode(),
			"duration": resp.Time(),
			"size":     resp.Size(),
		})
		if resp.IsError() {
			entry.Warn("Error response from flags API")
		} else {
			entry.Debug("Response from flags API")
		}
		return nil
	}
}
