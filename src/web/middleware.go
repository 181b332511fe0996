package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/iafilius/JobAnalytics/src/logging"
	"github.com/iafilius/JobAnalytics/src/metrics"
)

var logger = logging.For("web")

// MetricsMiddleware records request count and latency per endpoint and status.
// A nil m only logs.
func MetricsMiddleware(m *metrics.Metrics, endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(start)
		m.RecordHTTP(endpoint, r.Method, strconv.Itoa(wrapped.statusCode), elapsed.Seconds())
		if wrapped.statusCode >= http.StatusInternalServerError {
			logger.Warnf("%s %s -> %d in %s", r.Method, r.URL.Path, wrapped.statusCode, elapsed)
			return
		}
		logger.Debugf("%s %s -> %d in %s", r.Method, r.URL.Path, wrapped.statusCode, elapsed)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
