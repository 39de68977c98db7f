package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckFunc probes one dependency; a nil error means healthy
type CheckFunc func(ctx context.Context) error

// RedisCheck probes a Redis client with PING
func RedisCheck(client *redis.Client) CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// HealthChecker handles health check requests
type HealthChecker struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewHealthChecker creates a health checker. checks are only run in extended mode.
func NewHealthChecker(checks map[string]CheckFunc) *HealthChecker {
	return &HealthChecker{checks: checks, timeout: 5 * time.Second}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended also probes dependencies.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") != "extended" {
		respondJSON(w, http.StatusOK, response)
		return
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	response.Checks = make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			response.Status = "unhealthy"
			response.Checks[name] = "unhealthy: " + err.Error()
			continue
		}
		response.Checks[name] = "healthy"
	}

	status := http.StatusOK
	if response.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, response)
}
