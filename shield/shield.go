// Package shield provides the HTTP middleware of the read-only query API:
// a GET-only gate, security headers and per-request ids with a request logger.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.APIStack(logger) {
//	    r.Use(mw)
//	}
package shield

import (
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// APIStack returns the middleware stack for the JSON API, ordered
// ReadOnly, SecurityHeaders, RequestID.
func APIStack(logger *slog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		ReadOnly,
		SecurityHeaders(DefaultHeaders()),
		RequestID(logger),
	}
}
