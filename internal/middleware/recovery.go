package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
)

// recoveryStackSize bounds the captured stack trace at 4KB.
const recoveryStackSize = 4 << 10

// RecoveryConfig holds configuration for the panic recovery middleware.
type RecoveryConfig struct {
	Logger *slog.Logger

	// StackSize caps the captured stack trace. Zero means 4KB.
	StackSize int
}

// DefaultRecoveryConfig returns the recovery settings the router installs.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		Logger:    slog.Default(),
		StackSize: recoveryStackSize,
	}
}

// Recovery converts a handler panic into a logged 500 response. It captures
// the panicking goroutine's stack and answers with the standard response
// envelope so clients never see a half-written body.
func Recovery(config RecoveryConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.StackSize == 0 {
		config.StackSize = recoveryStackSize
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}

				stack := make([]byte, config.StackSize)
				stack = stack[:runtime.Stack(stack, false)]

				req := c.Request()
				config.Logger.Error("panic recovered",
					slog.String("error", err.Error()),
					slog.String("method", req.Method),
					slog.String("path", req.URL.Path),
					slog.String("request_id", requestIDOf(c)),
					slog.String("stack", string(stack)),
				)

				if !c.Response().Committed {
					// Same shape as httpserver.Response; spelled out here to
					// keep the middleware free of a package cycle.
					_ = c.JSON(http.StatusInternalServerError, map[string]any{
						"success": false,
						"error": map[string]string{
							"code":    "INTERNAL_ERROR",
							"message": "An internal error occurred",
						},
					})
				}
			}()

			return next(c)
		}
	}
}

// requestIDOf reads the request id set by the logging middleware, falling
// back to the inbound header.
func requestIDOf(c echo.Context) string {
	if id := c.Response().Header().Get(RequestIDHeader); id != "" {
		return id
	}
	return c.Request().Header.Get(RequestIDHeader)
}
