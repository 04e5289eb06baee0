// Package main provides the API server entry point.
package main

import (
	"github.com/labstack/echo/v4"

	"github.com/unbored-app/unbored/internal/infrastructure/httpserver"
	"github.com/unbored-app/unbored/internal/middleware"
)

// SetupRoutes configures all API routes and middleware chains.
func SetupRoutes(c *Container) *httpserver.Router {
	srv := httpserver.NewServer(httpserver.ServerConfig{
		Host:            c.Config.Server.Host,
		Port:            c.Config.Server.Port,
		ReadTimeout:     c.Config.Server.ReadTimeout,
		WriteTimeout:    c.Config.Server.WriteTimeout,
		ShutdownTimeout: c.Config.Server.ShutdownTimeout,
	}, c.Logger)
	e := srv.Echo()

	routerConfig := httpserver.RouterConfig{
		Logger: c.Logger,
		AuthMiddleware: middleware.Auth(middleware.AuthConfig{
			Logger:   c.Logger,
			Verifier: c.JWTManager,
			SkipPaths: []string{
				"/health",
				"/ready",
				"/health/details",
			},
		}),
		RateLimitMiddleware: rateLimitMiddleware(c),
		CORSConfig:          middleware.DefaultCORSConfig(),
		LoggingConfig:       middleware.DefaultLoggingConfig(),
		RecoveryConfig:      middleware.DefaultRecoveryConfig(),
		APIPrefix:           "/api/v1",
	}

	router := httpserver.NewRouter(e, routerConfig)

	if c.Metrics != nil {
		e.Use(middleware.Metrics(c.Metrics))
	}

	// Container implements httpserver.HealthChecker, so it is passed directly
	// and the probes share the container's live connections.
	router.RegisterHealthEndpointsWithChecker(c)
	router.RegisterMetricsEndpoint()

	router.RegisterAll(
		c.AuthHandler,
		c.ProfileHandler,
		c.EventHandler,
		c.GroupHandler,
		c.FriendHandler,
	)

	// The live feed upgrades outside the API groups; it authenticates with a
	// token query parameter instead of the Authorization header.
	c.WSHandler.RegisterRoutes(e)

	if c.Config.IsDevelopment() {
		router.PrintRoutes()
	}

	return router
}

// rateLimitMiddleware builds the Redis-backed rate limiter, or nil when
// rate limiting is disabled.
func rateLimitMiddleware(c *Container) echo.MiddlewareFunc {
	cfg := c.Config.RateLimit
	if !cfg.Enabled {
		return nil
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Logger: c.Logger,
		Store:  middleware.NewRedisRateLimitStore(c.Redis, "ratelimit:"),
		Limit:  cfg.Limit,
		Window: cfg.Window,
		SkipPaths: []string{
			"/health",
			"/ready",
			"/metrics",
		},
	})
}
