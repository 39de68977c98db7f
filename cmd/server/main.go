package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/proxy-api/internal/config"
	"github.com/benvon/proxy-api/internal/corspolicy"
	"github.com/benvon/proxy-api/internal/envdump"
	"github.com/benvon/proxy-api/internal/handlers"
	"github.com/benvon/proxy-api/internal/logger"
	"github.com/benvon/proxy-api/internal/middleware"
	"github.com/benvon/proxy-api/internal/server"
	"github.com/benvon/proxy-api/internal/telemetry"
	"github.com/benvon/proxy-api/internal/validation"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging (including CORS decisions)")
	flag.Parse()

	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	cfg.ServerDebugMode = cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.IsDevelopment(), cfg.ServerDebugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger) // Sync errors on stdout/stderr are expected
	}()

	zapLogger.Info("starting_server",
		zap.String("version", handlers.Version),
		zap.String("environment", cfg.Environment),
		zap.Bool("debug_mode", cfg.ServerDebugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)
	for _, warning := range cfg.Warnings {
		zapLogger.Warn("config_value_replaced_by_default", zap.String("detail", warning))
	}

	policy := corspolicy.BuildPolicy(cfg.CORS)
	// Unmatchable origins stay in the policy; they are reported, not rejected
	for origin, reason := range validation.UnmatchableOrigins(policy.AllowedOrigins) {
		zapLogger.Warn("cors_origin_never_matches",
			zap.String("origin", logger.SanitizeOrigin(origin)),
			zap.String("reason", reason.Error()),
		)
	}

	tracing := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.Options{
				ServiceVersion: handlers.Version,
				Environment:    cfg.Environment,
				Endpoint:       cfg.OTELEndpoint,
				Insecure:       cfg.OTELInsecure,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracing = true
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
					zap.Bool("insecure", cfg.OTELInsecure),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = middleware.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	}

	router, err := server.NewRouter(server.Options{
		Config:  cfg,
		Policy:  policy,
		Logger:  zapLogger,
		Redis:   redisClient,
		Tracing: tracing,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_build_router", zap.Error(err))
	}

	srv := server.NewHTTPServer(cfg, router)

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		return
	}

	zapLogger.Info("server_exited")
}

// loadConfig dumps the process environment to w, when enabled, and then loads
// configuration. The dump comes first so it shows the environment the process
// was started with, before .env entries are merged into it.
func loadConfig(w io.Writer) (*config.Config, error) {
	if enabled, redact := config.DumpSettings(); enabled {
		var opts []envdump.Option
		if redact {
			opts = append(opts, envdump.WithRedaction())
		}
		if err := envdump.DumpProcess(w, opts...); err != nil {
			log.Printf("Failed to dump environment: %v", err)
		}
	}
	return config.Load()
}
