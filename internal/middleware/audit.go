package middleware

import (
	"net/http"

	"github.com/benvon/proxy-api/internal/corspolicy"
	logpkg "github.com/benvon/proxy-api/internal/logger"
	"github.com/benvon/proxy-api/internal/request"
	"go.uber.org/zap"
)

// Audit logs security-related events: cross-origin requests from origins the
// policy does not allow, and rate limit violations.
func Audit(policy corspolicy.Policy, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && !policy.AllowsOrigin(origin) {
				logger.Warn("cross_origin_rejected",
					zap.String("origin", logpkg.SanitizeOrigin(origin)),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
					zap.String("request_id", request.IDFromContext(r.Context())),
				)
			}

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode == http.StatusTooManyRequests {
				logger.Warn("rate_limit_violation",
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
				)
			}
		})
	}
}
