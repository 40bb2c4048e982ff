package webserver

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// TokenMiddleware rejects API requests that do not carry the configured
// bearer token. An empty token disables the check.
type TokenMiddleware struct {
	Token  string
	Logger logrus.FieldLogger
}

// NewTokenMiddleware initializes a new token middleware.
func NewTokenMiddleware(token string, logger logrus.FieldLogger) *TokenMiddleware {
	return &TokenMiddleware{Token: token, Logger: logger}
}

// Handler is the HTTP middleware for authentication.
func (m *TokenMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Token == "" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			m.Logger.WithField("path", r.URL.Path).Warn("Authorization token not found")
			writeError(w, http.StatusUnauthorized, "Authorization token not found")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.Token)) != 1 {
			m.Logger.WithField("path", r.URL.Path).Warn("Invalid token")
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractToken reads a bearer token from the Authorization header.
func extractToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
