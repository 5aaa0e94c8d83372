package middleware

import (
	"net/http"

	"github.com/dustin/go-humanize"
)

const defaultMaxBodySize = 10 * 1024 * 1024

// ParseSize parses a human size such as "10MB" or "512KiB", falling back to
// def when s is empty or malformed.
func ParseSize(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := humanize.ParseBytes(s)
	if err != nil || n == 0 {
		return def
	}
	return int64(n)
}

// BodySizeLimit restricts the request body to maxSize (e.g. "10MB").
func BodySizeLimit(maxSize string) Middleware {
	size := ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
