package middleware

import (
	"net/http"
)

// DefaultMaxRequestSize applies when no positive limit is configured (1 MiB)
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize caps request bodies at maxBytes. Requests that declare a
// larger Content-Length are rejected with 413 before reaching the router;
// undeclared bodies fail on read once they pass the limit.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
