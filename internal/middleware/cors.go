package middleware

import (
	"fmt"
	"net/http"

	"github.com/benvon/proxy-api/internal/corspolicy"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// anyMethod is the method list used when a policy allows any method.
var anyMethod = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodConnect,
	http.MethodOptions,
	http.MethodTrace,
}

// CORSOptions translates a policy into rs/cors options. Origins are matched
// with policy.AllowsOrigin, so "*" or "https://*.example.com" entries are
// literal strings rather than rs/cors wildcard patterns.
func CORSOptions(policy corspolicy.Policy) cors.Options {
	opts := cors.Options{
		AllowOriginFunc:  policy.AllowsOrigin,
		AllowCredentials: policy.AllowCredentials,
	}
	if policy.AllowAnyMethod {
		opts.AllowedMethods = anyMethod
	}
	if policy.AllowAnyHeader {
		opts.AllowedHeaders = []string{"*"}
	}
	return opts
}

// CORS applies policy to every request. Preflight requests are answered here
// and never reach the router. With debug set, rs/cors decisions are logged.
func CORS(policy corspolicy.Policy, logger *zap.Logger, debug bool) func(http.Handler) http.Handler {
	opts := CORSOptions(policy)
	if debug {
		opts.Debug = true
		opts.Logger = corsLogger{logger: logger.With(zap.String("cors_policy", policy.Name))}
	}
	c := cors.New(opts)

	logger.Info("cors_policy_configured",
		zap.String("policy", policy.Name),
		zap.Strings("allowed_origins", policy.AllowedOrigins),
		zap.Bool("allow_any_header", policy.AllowAnyHeader),
		zap.Bool("allow_any_method", policy.AllowAnyMethod),
		zap.Bool("allow_credentials", policy.AllowCredentials),
	)

	return c.Handler
}

// AnswerOptions replies 204 to OPTIONS requests that are not CORS preflights.
// It runs after CORS, which answers preflights itself, so the router never
// needs an OPTIONS route that would turn unknown paths into 405s.
func AnswerOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsLogger adapts zap to the rs/cors Logger interface.
type corsLogger struct {
	logger *zap.Logger
}

func (l corsLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug("cors_decision", zap.String("detail", fmt.Sprintf(format, v...)))
}
