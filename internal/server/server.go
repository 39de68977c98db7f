// Package server assembles the HTTP pipeline around the CORS policy.
//
// Pipeline, outermost first: request ID, logging, panic recovery, security
// headers, audit, CORS, plain OPTIONS answer, request size limit, then the router (tracing and
// timeout as router middleware, rate limiting on /api/v1 only).
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/proxy-api/internal/config"
	"github.com/benvon/proxy-api/internal/corspolicy"
	"github.com/benvon/proxy-api/internal/handlers"
	"github.com/benvon/proxy-api/internal/middleware"
	"github.com/benvon/proxy-api/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// APIPrefix is where API controllers are mounted
const APIPrefix = "/api/v1"

// Options carries everything the pipeline is built from
type Options struct {
	Config *config.Config
	Policy corspolicy.Policy
	Logger *zap.Logger
	// Redis is optional; when set it backs rate limiting and the extended health check
	Redis *redis.Client
	// Tracing wraps the router with otelmux; requires a global tracer provider
	Tracing bool
}

// Router is the assembled HTTP pipeline
type Router struct {
	root    *mux.Router
	api     *mux.Router
	handler http.Handler
}

// NewRouter builds the router and wraps it with the middleware pipeline.
func NewRouter(opts Options) (*Router, error) {
	cfg := opts.Config
	logger := opts.Logger

	r := mux.NewRouter()
	if opts.Tracing {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.Timeout(time.Duration(cfg.RequestTimeoutSeconds) * time.Second))

	checks := map[string]handlers.CheckFunc{}
	if opts.Redis != nil {
		checks["redis"] = handlers.RedisCheck(opts.Redis)
	}
	healthChecker := handlers.NewHealthChecker(checks)

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", handlers.VersionInfo).Methods(http.MethodGet)

	// API documentation is only exposed in development
	if cfg.IsDevelopment() {
		handlers.NewOpenAPIHandler(cfg.OpenAPIPath).RegisterRoutes(r)
		logger.Info("openapi_routes_enabled", zap.String("openapi_path", cfg.OpenAPIPath))
	}

	api := r.PathPrefix(APIPrefix).Subrouter()
	if cfg.RateLimit != "" {
		rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, opts.Redis)
		if err != nil {
			return nil, fmt.Errorf("configure rate limiting: %w", err)
		}
		api.Use(rateLimitMW)
		logger.Info("rate_limiting_enabled",
			zap.String("rate", cfg.RateLimit),
			zap.Bool("shared_store", opts.Redis != nil),
		)
	}

	handler := chain(r,
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.ErrorHandler(logger),
		middleware.SecurityHeaders(cfg.EnableHSTS),
		middleware.Audit(opts.Policy, logger),
		middleware.CORS(opts.Policy, logger, cfg.ServerDebugMode),
		middleware.AnswerOptions,
		middleware.MaxRequestSize(int64(cfg.MaxRequestBodyBytes)),
	)

	return &Router{root: r, api: api, handler: handler}, nil
}

// API returns the /api/v1 subrouter for mounting controllers
func (rt *Router) API() *mux.Router {
	return rt.api
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rt.handler.ServeHTTP(w, req)
}

// NewHTTPServer creates the http.Server for handler using the configured port and timeouts.
func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// chain wraps h so that the first middleware is the outermost
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
