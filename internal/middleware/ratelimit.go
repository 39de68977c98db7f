package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/proxy-api/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const rateLimitKeyPrefix = "proxyapi_ratelimit"

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RateLimit limits requests per client IP using the ulule/limiter formatted
// rate (e.g. "100-M"). Counters live in Redis when a client is given, so all
// instances share them; otherwise they are kept in process memory.
func RateLimit(rate string, redisClient *redis.Client) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitKeyPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitKeyPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}

	instance := limiter.New(store, parsed)
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(request.ClientIP))
	return mw.Handler, nil
}
