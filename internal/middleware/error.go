package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	logpkg "github.com/benvon/proxy-api/internal/logger"
	"github.com/benvon/proxy-api/internal/request"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body written when a handler panics
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler recovers handler panics into a 500 ErrorResponse. Panic
// details are logged, never returned. http.ErrAbortHandler is re-raised so
// net/http can abort the connection.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				requestID := request.IDFromContext(r.Context())
				logger.Error("panic_recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("origin", logpkg.SanitizeOrigin(r.Header.Get("Origin"))),
					zap.String("request_id", requestID),
				)

				body := ErrorResponse{
					Error:     http.StatusText(http.StatusInternalServerError),
					Message:   "An unexpected error occurred",
					Timestamp: time.Now().UTC().Format(time.RFC3339),
					Path:      r.URL.Path,
					RequestID: requestID,
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(w).Encode(body); err != nil {
					logger.Warn("failed_to_encode_error_response", zap.Error(err), zap.String("request_id", requestID))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
