// internal/infrastructure/middleware/middleware.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/damon-houk/transaction-record-service/internal/infrastructure/logger"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// unmatchedRoute labels requests that no registered route accepts
const unmatchedRoute = "unmatched"

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the id stored by RequestID, or "unknown" outside a request
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return "unknown"
}

// RequestID reuses the caller's X-Request-ID or assigns a fresh uuid, echoing it on the response
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// Logging writes one structured line per completed request. Server errors are
// logged at error level.
func Logging(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.WithFields(map[string]interface{}{
				"request_id": GetRequestID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
			})

			reqLog.Debug("Request received", map[string]interface{}{
				"remote_addr":    r.RemoteAddr,
				"user_agent":     r.UserAgent(),
				"content_length": r.ContentLength,
			})

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			fields := map[string]interface{}{
				"status":      rec.status,
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if rec.status >= http.StatusInternalServerError {
				reqLog.Error("Request completed", fields)
				return
			}
			reqLog.Info("Request completed", fields)
		})
	}
}

// RouteMatcher resolves a request to its registered route; *mux.Router satisfies it
type RouteMatcher interface {
	Match(req *http.Request, match *mux.RouteMatch) bool
}

// Metrics records request counts and latencies labelled by route template.
// It wraps the whole router so requests that match no route are counted too.
func Metrics(m *metrics.HTTPMetrics, routes RouteMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := routeTemplate(routes, r)

			m.Start()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			m.Observe(r.Method, route, rec.status, time.Since(start))
		})
	}
}

// routeTemplate keeps label cardinality bounded: path variables stay as placeholders
func routeTemplate(routes RouteMatcher, r *http.Request) string {
	var match mux.RouteMatch
	if !routes.Match(r, &match) || match.MatchErr != nil || match.Route == nil {
		return unmatchedRoute
	}

	tpl, err := match.Route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tpl
}

// statusRecorder remembers the status and body size written through it
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(status int) {
	if !s.wroteHeader {
		s.status = status
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	n, err := s.ResponseWriter.Write(b)
	s.bytes += int64(n)
	return n, err
}
