package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"codeberg.org/seoscribe/dashboard/internal/config"
	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// allows the configured origins to call the API with the device cookie.
// returns nil in production when no origin is configured (same-origin only).
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	switch {
	case len(cfg.CORSOrigins) > 0:
		corsConfig.AllowOrigins = cfg.CORSOrigins
	case !cfg.IsProduction():
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	default:
		logger.Warn("CORS_ORIGINS not configured, cross-origin requests disabled")
		return nil
	}

	return cors.New(corsConfig)
}

// per-IP request limit for /api/v1. shares counters through redis when the
// usage store is redis so every replica enforces the same budget.
func RateLimitMiddleware(cfg *config.Config, backend usage.Backend) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", cfg.RateLimit, err)
	}

	var store limiter.Store

	if rb, ok := backend.(*usage.RedisBackend); ok {
		store, err = sredis.NewStoreWithOptions(rb.Client(), limiter.StoreOptions{
			Prefix: "seoscribe:ratelimit",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memory.NewStore()
	}

	return mgin.NewMiddleware(limiter.New(store, rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			errors.TooManyRequests(c, "rate limit exceeded, slow down")
		}),
	), nil
}
