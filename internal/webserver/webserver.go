package webserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/y0ug/flagaudit/internal/audit"
	"github.com/y0ug/flagaudit/internal/cache"
	"github.com/y0ug/flagaudit/internal/flags"
	"github.com/y0ug/flagaudit/internal/launchdarkly"
)

// Auditor is the part of audit.Auditor the API serves.
type Auditor interface {
	ListFlags(ctx context.Context, q audit.Query) ([]flags.Flag, error)
	InactiveFlags(ctx context.Context, q audit.Query) ([]flags.Flag, error)
	Stats(ctx context.Context, q audit.Query) (*audit.Stats, error)
}

// WebServer holds the data needed for handling HTTP requests.
type WebServer struct {
	Auditor       Auditor
	Cache         cache.Store
	DefaultMonths int
	config        *Config
	Logger        logrus.FieldLogger
}

// FlagsResponse is the payload of the flag listing endpoints.
type FlagsResponse struct {
	Project string       `json:"project"`
	Months  int          `json:"months,omitempty"`
	Count   int          `json:"count"`
	Flags   []flags.Flag `json:"flags"`
}

// CacheResponse is the payload of GET /api/cache.
type CacheResponse struct {
	Location   string        `json:"location"`
	TTLSeconds int           `json:"ttl_seconds"`
	Entries    []cache.Entry `json:"entries"`
}

// NewWebServer initializes a new WebServer.
func NewWebServer(auditor Auditor, store cache.Store, defaultMonths int, config *Config, logger logrus.FieldLogger) *WebServer {
	if store == nil {
		store = cache.NopStore{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WebServer{
		Auditor:       auditor,
		Cache:         store,
		DefaultMonths: defaultMonths,
		config:        config,
		Logger:        logger,
	}
}

// StartWebServer starts the HTTP server. Errors from ListenAndServe other
// than a shutdown are sent on errCh.
func StartWebServer(ws *WebServer, errCh chan<- error) *http.Server {
	router := ws.InitRouter()

	corsOptions := cors.Options{
		AllowedOrigins: ws.config.CorsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Length"},
	}
	handler := cors.New(corsOptions).Handler(router)

	server := &http.Server{
		Addr:              ws.config.ListenTo,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		ws.Logger.Infof("Server starting on %s", ws.config.ListenTo)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ws.Logger.Errorf("ListenAndServe(): %v", err)
			errCh <- err
		}
	}()

	return server
}

// InitRouter initializes the HTTP routes.
func (ws *WebServer) InitRouter() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(NewTokenMiddleware(ws.config.APIToken, ws.Logger).Handler)

	api.HandleFunc("/projects/{project}/flags", ws.handleGetFlags).Methods(http.MethodGet)
	api.HandleFunc("/projects/{project}/inactive", ws.handleGetInactive).Methods(http.MethodGet)
	api.HandleFunc("/projects/{project}/stats", ws.handleGetStats).Methods(http.MethodGet)
	api.HandleFunc("/cache", ws.handleGetCache).Methods(http.MethodGet)
	api.HandleFunc("/cache", ws.handleClearCache).Methods(http.MethodDelete)

	return r
}

// parseQuery builds an audit.Query from the route and the query string:
// months, maintainer and exclude (comma-separated or repeated), refresh
// and nocache.
func (ws *WebServer) parseQuery(r *http.Request) (audit.Query, error) {
	values := r.URL.Query()
	q := audit.Query{
		Project:     mux.Vars(r)["project"],
		Months:      ws.DefaultMonths,
		Maintainers: splitValues(values["maintainer"]),
		Exclude:     splitValues(values["exclude"]),
		Fetch:       launchdarkly.DefaultFetchOptions,
	}

	if monthsStr := values.Get("months"); monthsStr != "" {
		months, err := strconv.Atoi(monthsStr)
		if err != nil || months < 0 {
			return q, errors.New("months must be a non-negative integer")
		}
		q.Months = months
	}
	if isTrue(values.Get("nocache")) {
		q.Fetch.UseCache = false
	}
	if isTrue(values.Get("refresh")) {
		q.Fetch.OverrideCache = true
	}
	return q, nil
}

// handleGetFlags handles the GET /api/projects/{project}/flags endpoint.
func (ws *WebServer) handleGetFlags(w http.ResponseWriter, r *http.Request) {
	q, err := ws.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := ws.Auditor.ListFlags(r.Context(), q)
	if err != nil {
		ws.writeAuditError(w, q.Project, err)
		return
	}

	writeSuccess(w, "Flags retrieved successfully", FlagsResponse{
		Project: q.Project,
		Count:   len(list),
		Flags:   nonNil(list),
	})
}

// handleGetInactive handles the GET /api/projects/{project}/inactive endpoint.
func (ws *WebServer) handleGetInactive(w http.ResponseWriter, r *http.Request) {
	q, err := ws.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := ws.Auditor.InactiveFlags(r.Context(), q)
	if err != nil {
		ws.writeAuditError(w, q.Project, err)
		return
	}

	writeSuccess(w, "Inactive flags retrieved successfully", FlagsResponse{
		Project: q.Project,
		Months:  q.Months,
		Count:   len(list),
		Flags:   nonNil(list),
	})
}

// handleGetStats handles the GET /api/projects/{project}/stats endpoint.
func (ws *WebServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	q, err := ws.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := ws.Auditor.Stats(r.Context(), q)
	if err != nil {
		ws.writeAuditError(w, q.Project, err)
		return
	}

	writeSuccess(w, "Statistics retrieved successfully", stats)
}

// handleGetCache handles the GET /api/cache endpoint.
func (ws *WebServer) handleGetCache(w http.ResponseWriter, r *http.Request) {
	entries, err := ws.Cache.List(r.Context())
	if err != nil {
		ws.Logger.WithError(err).Error("Failed to list cache entries")
		writeError(w, http.StatusInternalServerError, "Failed to list cache entries")
		return
	}
	if entries == nil {
		entries = []cache.Entry{}
	}

	writeSuccess(w, "Cache entries retrieved successfully", CacheResponse{
		Location:   ws.Cache.Location(),
		TTLSeconds: int(ws.Cache.TTL().Seconds()),
		Entries:    entries,
	})
}

// handleClearCache handles the DELETE /api/cache endpoint.
func (ws *WebServer) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := ws.Cache.Clear(r.Context()); err != nil {
		ws.Logger.WithError(err).Error("Failed to clear cache")
		writeError(w, http.StatusInternalServerError, "Failed to clear cache")
		return
	}
	writeSuccess(w, "Cache cleared successfully", nil)
}

// writeAuditError maps fetch failures onto HTTP statuses. Upstream failures
// other than an unknown project are reported as a bad gateway.
func (ws *WebServer) writeAuditError(w http.ResponseWriter, project string, err error) {
	ws.Logger.WithError(err).WithField("project", project).Error("Audit request failed")

	var apiErr *launchdarkly.APIError
	switch {
	case errors.Is(err, launchdarkly.ErrMissingAPIKey):
		writeError(w, http.StatusServiceUnavailable, "LaunchDarkly API key is not configured")
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		writeError(w, http.StatusNotFound, apiErr.Message)
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, apiErr.Message)
	case errors.Is(err, flags.ErrInvalidPayload):
		writeError(w, http.StatusBadGateway, "Invalid payload from LaunchDarkly")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to audit flags")
	}
}

func splitValues(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func isTrue(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}

func nonNil(list []flags.Flag) []flags.Flag {
	if list == nil {
		return []flags.Flag{}
	}
	return list
}
