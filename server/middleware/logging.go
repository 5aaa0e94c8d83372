package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/annotpipe/logger"
)

var probePaths = map[string]bool{
	"/health":       true,
	"/health/live":  true,
	"/health/ready": true,
	"/metrics":      true,
}

// slowRequest flags plain responses that took longer than this to produce.
const slowRequest = 500 * time.Millisecond

// RequestLogger logs every request with method, path, status, size and
// duration. Probe paths are skipped. Event streams are logged when they end
// and are never flagged slow.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newRecorder(w)
			next.ServeHTTP(rw, r)
			duration := time.Since(start)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, rw.status,
				logger.FieldDuration, duration.Milliseconds(),
				"bytes", rw.bytes,
			)
			if id := r.Header.Get(RequestIDHeader); id != "" {
				fields[logger.FieldRequestID] = id
			}
			switch {
			case rw.streaming():
				fields["stream"] = true
			case duration > slowRequest:
				fields["slow"] = true
			}
			logByStatus(log, fields, rw.status)
		})
	}
}

// logByStatus logs at error for 5xx, warn for 4xx and debug otherwise.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
