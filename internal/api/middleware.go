package api

import (
    "net/http"
    "strconv"
    "time"

    "routesync/internal/metrics"
)

type statusRecorder struct {
    http.ResponseWriter
    status int
}

func (r *statusRecorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

// instrument logs every request and records HTTP metrics. Paths are
// normalized to the registered route prefix to keep label cardinality down.
func (s *Server) instrument(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
        next.ServeHTTP(rec, r)
        elapsed := time.Since(start)
        path := routeLabel(r.URL.Path)
        status := strconv.Itoa(rec.status)
        metrics.HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
        metrics.HTTPDuration.WithLabelValues(r.Method, path, status).Observe(elapsed.Seconds())
        s.Log.Info().
            Str("method", r.Method).
            Str("path", r.URL.Path).
            Int("status", rec.status).
            Dur("duration", elapsed).
            Msg("request")
    })
}

func routeLabel(path string) string {
    prefixes := []string{"/v1/routes/", "/v1/planning/", "/v1/subscriptions/"}
    for _, p := range prefixes {
        if len(path) > len(p) && path[:len(p)] == p {
            return p + ":id"
        }
    }
    return path
}
