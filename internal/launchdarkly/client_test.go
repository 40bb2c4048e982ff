package launchdarkly

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y0ug/flagaudit/internal/cache"
	"github.com/y0ug/flagaudit/internal/flags"
)

const apiPayload = `{
  "items": [
    {
      "key": "new-checkout",
      "name": "New checkout",
      "archived": false,
      "temporary": true,
      "creationDate": 1600000000000,
      "_maintainer": {"firstName": "Ada"},
      "environments": {
        "production": {"on": true, "lastModified": 1600000000000}
      }
    }
  ]
}`

type memStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemStore() *memStore {
	return &memStore{entries: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	return data, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), data...)
	m.sets++
	return nil
}

func (m *memStore) List(context.Context) ([]cache.Entry, error) { return nil, nil }
func (m *memStore) Clear(context.Context) error                 { return nil }
func (m *memStore) Location() string                            { return "memory" }
func (m *memStore) TTL() time.Duration                          { return time.Hour }
func (m *memStore) Close(context.Context) error                 { return nil }

type failingStore struct{ *memStore }

func (f *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type apiServer struct {
	*httptest.Server
	hits     atomic.Int32
	lastAuth atomic.Value
	lastPath atomic.Value
	status   int
	body     string
}

func newAPIServer(t *testing.T, status int, body string) *apiServer {
	t.Helper()
	s := &apiServer{status: status, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.lastAuth.Store(r.Header.Get("Authorization"))
		s.lastPath.Store(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		io.WriteString(w, s.body)
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestClient(baseURL string, store cache.Store) *Client {
	cfg := &Config{APIKey: "api-secret", BaseURL: baseURL, Timeout: 5 * time.Second}
	return NewClient(cfg, store, quietLogger())
}

func TestGetAllFlags(t *testing.T) {
	srv := newAPIServer(t, http.StatusOK, apiPayload)
	client := newTestClient(srv.URL, newMemStore())

	items, err := client.GetAllFlags(context.Background(), "web", DefaultFetchOptions)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new-checkout", items[0].Key)
	assert.Equal(t, "Ada", items[0].Maintainer.FirstName)

	assert.Equal(t, "api-secret", srv.lastAuth.Load())
	assert.Equal(t, "/api/v2/flags/web", srv.lastPath.Load())
}

func TestFetchUsesCache(t *testing.T) {
	srv := newAPIServer(t, http.StatusOK, apiPayload)
	store := newMemStore()
	client := newTestClient(srv.URL, store)
	ctx := context.Background()

	_, err := client.GetAllFlags(ctx, "web", DefaultFetchOptions)
	require.NoError(t, err)
	_, err = client.GetAllFlags(ctx, "web", DefaultFetchOptions)
	require.NoError(t, err)

	assert.EqualValues(t, 1, srv.hits.Load())
	assert.Equal(t, 1, store.sets)
	assert.JSONEq(t, apiPayload, string(store.entries["web"]))
}

func TestFetchNoCache(t *testing.T) {
	srv := newAPIServer(t, http.StatusOK, apiPayload)
	store := newMemStore()
	store.entries["web"] = []byte(`{"items": []}`)
	client := newTestClient(srv.URL, store)

	items, err := client.GetAllFlags(context.Background(), "web", FetchOptions{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.EqualValues(t, 1, srv.hits.Load())
	assert.Equal(t, 0, store.sets)
}

func TestFetchOverrideCache(t *testing.T) {
	srv := newAPIServer(t, http.StatusOK, apiPayload)
	store := newMemStore()
	store.entries["web"] = []byte(`{"items": []}`)
	client := newTestClient(srv.URL, store)

	for _, opts := range []FetchOptions{{OverrideCache: true}, {UseCache: true, OverrideCache: true}} {
		items, err := client.GetAllFlags(context.Background(), "web", opts)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	}
	assert.EqualValues(t, 2, srv.hits.Load())
	assert.Equal(t, 2, store.sets)
	assert.JSONEq(t, apiPayload, string(store.entries["web"]))
}

func TestFetchUnparsableCacheRefetches(t *testing.T) {
	srv := newAPIServer(t, http.StatusOK, apiPayload)
	store := newMemStore()
	store.entries["web"] = []byte(`{"unexpected": true}`)
	client := newTestClient(srv.URL, store)

	items, err := client.GetAllFlags(context.Background(), "web", DefaultFetchOptions)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.EqualValues(t, 1, srv.hits.Load())
}

func TestFetchCacheErrorFallsBackToAPI(t *testing.T) {
	srv := newAPIServer(t, http.StatusOK, apiPayload)
	store := &failingStore{newMemStore()}
	client := newTestClient(srv.URL, store)

	items, err := client.GetAllFlags(context.Background(), "web", DefaultFetchOptions)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestFetchStatusErrors(t *testing.T) {
	tests := []struct {
		status  int
		message string
	}{
		{http.StatusUnauthorized, "invalid or expired API key, check LD_API_KEY"},
		{http.StatusNotFound, "project 'web' not found"},
		{http.StatusInternalServerError, "failed to fetch flags (HTTP 500)"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newAPIServer(t, tt.status, `{"message": "nope"}`)
			store := newMemStore()
			client := newTestClient(srv.URL, store)

			_, err := client.GetAllFlags(context.Background(), "web", DefaultFetchOptions)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Error())
			assert.Equal(t, 0, store.sets)
		})
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := newAPIServer(t, http.StatusOK, apiPayload)
	url := srv.URL
	srv.Close()

	client := newTestClient(url, nil)
	_, err := client.GetAllFlags(context.Background(), "web", FetchOptions{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "network error")
	assert.NotNil(t, errors.Unwrap(apiErr))
}

func TestFetchInvalidPayload(t *testing.T) {
	srv := newAPIServer(t, http.StatusOK, `{"items": "nope"}`)
	store := newMemStore()
	client := newTestClient(srv.URL, store)

	_, err := client.GetAllFlags(context.Background(), "web", DefaultFetchOptions)
	assert.ErrorIs(t, err, flags.ErrInvalidPayload)
	assert.Equal(t, 0, store.sets)
}

func TestFetchMissingAPIKey(t *testing.T) {
	srv := newAPIServer(t, http.StatusOK, apiPayload)
	client := NewClient(&Config{BaseURL: srv.URL, Timeout: time.Second}, nil, quietLogger())

	_, err := client.FetchRaw(context.Background(), "web", DefaultFetchOptions)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, srv.hits.Load())
}

func TestFlagURL(t *testing.T) {
	assert.Equal(t, "https://ld.example.com/web/production/features/new-checkout",
		FlagURL("https://ld.example.com", "web", "production", "new-checkout"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("LD_API_KEY", "key")
	t.Setenv("LD_BASE_URL", "https://ld.example.com/")
	t.Setenv("LD_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "https://ld.example.com", cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	t.Setenv("LD_BASE_URL", "")
	t.Setenv("LD_TIMEOUT_SECONDS", "10")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)

	t.Setenv("LD_TIMEOUT_SECONDS", "-1")
	_, err = LoadConfig()
	assert.Error(t, err)
}
