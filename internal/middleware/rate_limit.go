package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Rate limit defaults.
const (
	DefaultRateLimit       = 100
	DefaultRateLimitWindow = time.Minute
	DefaultBurstSize       = 10
)

// Rate limit errors.
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// RateLimitStore defines the interface for rate limit storage.
type RateLimitStore interface {
	// Increment increments the counter for the given key and returns the new
	// count. The expiration is set when the key is created.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)

	// GetTTL returns the remaining TTL for the given key.
	GetTTL(ctx context.Context, key string) (time.Duration, error)
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// Logger is the structured logger for rate limit events.
	Logger *slog.Logger

	// Store is the rate limit storage backend.
	Store RateLimitStore

	// Limit is the maximum number of requests allowed per window.
	Limit int

	// Window is the time window for rate limiting.
	Window time.Duration

	// BurstSize is added on top of Limit to absorb short spikes.
	BurstSize int

	// KeyFunc generates a unique key for rate limiting.
	// If nil, defaults to user ID when authenticated, IP address otherwise.
	KeyFunc func(c echo.Context) string

	// SkipPaths are paths that don't require rate limiting.
	SkipPaths []string

	// Message is the error message returned when the limit is exceeded.
	Message string
}

// DefaultRateLimitConfig returns a RateLimitConfig with sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Logger:    slog.Default(),
		Limit:     DefaultRateLimit,
		Window:    DefaultRateLimitWindow,
		BurstSize: DefaultBurstSize,
		SkipPaths: []string{"/health", "/ready"},
		Message:   "Too many requests. Please try again later.",
	}
}

// RateLimit returns a rate limiting middleware with the given configuration.
func RateLimit(config RateLimitConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Limit <= 0 {
		config.Limit = DefaultRateLimit
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimitWindow
	}
	if config.Message == "" {
		config.Message = "Too many requests. Please try again later."
	}

	skipPaths := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			if _, ok := skipPaths[path]; ok {
				return next(c)
			}

			// A nil store disables rate limiting
			if config.Store == nil {
				return next(c)
			}

			key := generateRateLimitKey(c, config.KeyFunc)

			count, err := config.Store.Increment(c.Request().Context(), key, config.Window)
			if err != nil {
				config.Logger.Error("failed to increment rate limit counter",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				// The limiter failing must not take the API down with it
				return next(c)
			}

			totalLimit := int64(config.Limit + config.BurstSize)
			remaining := max(totalLimit-count, 0)

			c.Response().Header().Set("X-Ratelimit-Limit", strconv.FormatInt(totalLimit, 10))
			c.Response().Header().Set("X-Ratelimit-Remaining", strconv.FormatInt(remaining, 10))

			ttl, err := config.Store.GetTTL(c.Request().Context(), key)
			if err == nil && ttl > 0 {
				resetTime := time.Now().Add(ttl).Unix()
				c.Response().Header().Set("X-Ratelimit-Reset", strconv.FormatInt(resetTime, 10))
			}

			if count > totalLimit {
				config.Logger.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.Int64("count", count),
					slog.Int64("limit", totalLimit),
					slog.String("path", path),
					slog.String("remote_ip", c.RealIP()),
				)
				return respondRateLimitError(c, config.Message, ttl)
			}

			return next(c)
		}
	}
}

// generateRateLimitKey generates a unique key for rate limiting.
func generateRateLimitKey(c echo.Context, keyFunc func(c echo.Context) string) string {
	if keyFunc != nil {
		return keyFunc(c)
	}

	// Authenticated requests are tracked per user, anonymous ones per IP
	userID := GetUserID(c)
	if !userID.IsZero() {
		return fmt.Sprintf("user:%s", userID.String())
	}

	return fmt.Sprintf("ip:%s", c.RealIP())
}

// respondRateLimitError sends a rate limit exceeded error response.
func respondRateLimitError(c echo.Context, message string, retryAfter time.Duration) error {
	if retryAfter > 0 {
		c.Response().Header().Set("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
	}

	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"success": false,
		"error": map[string]any{
			"code":        "RATE_LIMIT_EXCEEDED",
			"message":     message,
			"retry_after": int64(retryAfter.Seconds()),
		},
	})
}

// RateLimitByEndpoint returns a rate limiting middleware that tracks each
// endpoint separately. Useful for tightening limits on expensive routes such
// as password reset requests.
func RateLimitByEndpoint(config RateLimitConfig) echo.MiddlewareFunc {
	originalKeyFunc := config.KeyFunc

	config.KeyFunc = func(c echo.Context) string {
		var baseKey string
		if originalKeyFunc != nil {
			baseKey = originalKeyFunc(c)
		} else {
			userID := GetUserID(c)
			if !userID.IsZero() {
				baseKey = fmt.Sprintf("user:%s", userID.String())
			} else {
				baseKey = fmt.Sprintf("ip:%s", c.RealIP())
			}
		}

		return fmt.Sprintf("endpoint:%s:%s:%s", c.Request().Method, c.Path(), baseKey)
	}

	return RateLimit(config)
}

// RateLimitByIP returns a rate limiting middleware that limits by IP only.
func RateLimitByIP(config RateLimitConfig) echo.MiddlewareFunc {
	config.KeyFunc = func(c echo.Context) string {
		return fmt.Sprintf("ip:%s", c.RealIP())
	}

	return RateLimit(config)
}

// RedisRateLimitStore is a Redis-backed rate limit store.
type RedisRateLimitStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRateLimitStore creates a new Redis-backed rate limit store.
func NewRedisRateLimitStore(client *redis.Client, keyPrefix string) *RedisRateLimitStore {
	if keyPrefix == "" {
		keyPrefix = "unbored:ratelimit:"
	}
	return &RedisRateLimitStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Increment increments the counter for the given key.
func (s *RedisRateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := s.keyPrefix + key

	count, err := s.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	// Expiration starts with the first request in the window
	if count == 1 {
		if expireErr := s.client.Expire(ctx, fullKey, window).Err(); expireErr != nil {
			return count, fmt.Errorf("failed to set expiration: %w", expireErr)
		}
	}

	return count, nil
}

// GetTTL returns the remaining TTL for the given key.
func (s *RedisRateLimitStore) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get ttl: %w", err)
	}
	return ttl, nil
}

// MemoryRateLimitStore is an in-memory rate limit store for testing.
type MemoryRateLimitStore struct {
	counts map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryRateLimitStore creates a new in-memory rate limit store.
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		counts: make(map[string]*rateLimitEntry),
	}
}

// Increment increments the counter for the given key.
func (s *MemoryRateLimitStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	entry, exists := s.counts[key]

	if exists && time.Now().Before(entry.expiresAt) {
		entry.count++
		return entry.count, nil
	}

	s.counts[key] = &rateLimitEntry{
		count:     1,
		expiresAt: time.Now().Add(window),
	}

	return 1, nil
}

// GetTTL returns the remaining TTL for the given key.
func (s *MemoryRateLimitStore) GetTTL(_ context.Context, key string) (time.Duration, error) {
	entry, exists := s.counts[key]
	if !exists {
		return 0, nil
	}

	ttl := time.Until(entry.expiresAt)
	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}

// Reset clears all rate limit entries (for testing).
func (s *MemoryRateLimitStore) Reset() {
	s.counts = make(map[string]*rateLimitEntry)
}
