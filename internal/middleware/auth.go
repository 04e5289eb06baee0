package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/auth"
)

// Context keys for authentication data.
type contextKey string

const (
	// ContextKeyUserID is the context key for the authenticated user ID.
	ContextKeyUserID contextKey = "user_id"

	// ContextKeyUsername is the context key for username.
	ContextKeyUsername contextKey = "username"

	// ContextKeyEmail is the context key for user email.
	ContextKeyEmail contextKey = "email"

	// ContextKeyRole is the context key for the user role.
	ContextKeyRole contextKey = "role"
)

// Auth errors.
var (
	ErrMissingAuthHeader       = errors.New("missing authorization header")
	ErrInvalidAuthHeader       = errors.New("invalid authorization header format")
	ErrInvalidToken            = errors.New("invalid token")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// AccessTokenVerifier verifies access tokens and returns their claims.
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (*auth.AccessClaims, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// Logger is the structured logger for auth events.
	Logger *slog.Logger

	// Verifier validates access tokens.
	Verifier AccessTokenVerifier

	// SkipPaths are paths that don't require authentication.
	SkipPaths []string
}

// DefaultAuthConfig returns an AuthConfig with sensible defaults.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Logger:    slog.Default(),
		SkipPaths: []string{"/health", "/ready"},
	}
}

// Auth returns an authentication middleware with the given configuration.
func Auth(config AuthConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
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

			token, tokenErr := extractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if tokenErr != nil {
				return respondAuthError(c, tokenErr)
			}

			if config.Verifier == nil {
				config.Logger.Error("token verifier not configured")
				return respondAuthError(c, ErrInvalidToken)
			}

			claims, verifyErr := config.Verifier.VerifyAccessToken(token)
			if verifyErr != nil {
				config.Logger.Warn("token verification failed",
					slog.String("error", verifyErr.Error()),
					slog.String("path", path),
					slog.String("remote_ip", c.RealIP()),
				)
				return respondAuthError(c, ErrInvalidToken)
			}

			userID, idErr := uuid.ParseUUID(claims.UserID)
			if idErr != nil {
				config.Logger.Warn("token carries malformed user id",
					slog.String("user_id", claims.UserID),
				)
				return respondAuthError(c, ErrInvalidToken)
			}

			enrichContext(c, userID, claims)

			config.Logger.Debug("user authenticated",
				slog.String("user_id", claims.UserID),
				slog.String("username", claims.Username),
				slog.String("path", path),
			)

			return next(c)
		}
	}
}

// extractBearerToken extracts the token from a Bearer authorization header.
func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthHeader
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrInvalidAuthHeader
	}

	return token, nil
}

// enrichContext adds the authenticated user's identity to the echo context.
func enrichContext(c echo.Context, userID uuid.UUID, claims *auth.AccessClaims) {
	c.Set(string(ContextKeyUserID), userID)
	c.Set(string(ContextKeyUsername), claims.Username)
	c.Set(string(ContextKeyEmail), claims.Email)
	c.Set(string(ContextKeyRole), user.Role(claims.Role))
}

// respondAuthError sends an authentication error response.
func respondAuthError(c echo.Context, err error) error {
	code := "UNAUTHORIZED"
	message := "Authentication required"
	status := http.StatusUnauthorized

	switch {
	case errors.Is(err, ErrMissingAuthHeader):
		message = "Missing authorization header"
	case errors.Is(err, ErrInvalidAuthHeader):
		message = "Invalid authorization header format"
	case errors.Is(err, ErrInvalidToken):
		message = "Invalid or expired token"
	case errors.Is(err, ErrInsufficientPermissions):
		message = "Insufficient permissions"
		code = "FORBIDDEN"
		status = http.StatusForbidden
	}

	return c.JSON(status, map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// GetUserID extracts the authenticated user ID from the echo context.
func GetUserID(c echo.Context) uuid.UUID {
	if id, ok := c.Get(string(ContextKeyUserID)).(uuid.UUID); ok {
		return id
	}
	return uuid.UUID("")
}

// GetUsername extracts the username from the echo context.
func GetUsername(c echo.Context) string {
	if username, ok := c.Get(string(ContextKeyUsername)).(string); ok {
		return username
	}
	return ""
}

// GetEmail extracts the email from the echo context.
func GetEmail(c echo.Context) string {
	if email, ok := c.Get(string(ContextKeyEmail)).(string); ok {
		return email
	}
	return ""
}

// GetRole extracts the user role from the echo context.
func GetRole(c echo.Context) user.Role {
	if role, ok := c.Get(string(ContextKeyRole)).(user.Role); ok {
		return role
	}
	return user.Role("")
}

// HasRole checks if the current user has the specified role.
func HasRole(c echo.Context, role user.Role) bool {
	return GetRole(c) == role
}

// RequireRole returns a middleware that requires the user to have a specific role.
func RequireRole(role user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !HasRole(c, role) {
				return respondAuthError(c, ErrInsufficientPermissions)
			}
			return next(c)
		}
	}
}

// RequireAdmin returns a middleware that requires the user to be an administrator.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(user.RoleAdmin)
}
