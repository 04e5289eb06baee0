package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/auth"
	"github.com/unbored-app/unbored/internal/middleware"
)

func newTestManager(t *testing.T) *auth.JWTManager {
	t.Helper()
	return auth.NewJWTManager(auth.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		ResetSecret:   "reset-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
		ResetTTL:      time.Minute,
	})
}

func newTestUser(t *testing.T, role user.Role) *user.User {
	t.Helper()
	return user.Reconstruct(user.Snapshot{
		ID:           uuid.NewUUID(),
		Username:     "maya",
		Email:        "maya@example.com",
		PasswordHash: "hash",
		Role:         role,
		Style:        user.DefaultStyle(),
		Unlocked:     user.DefaultUnlockedStyle(),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	})
}

func serveAuth(t *testing.T, mgr *auth.JWTManager, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	e := echo.New()
	cfg := middleware.DefaultAuthConfig()
	cfg.Verifier = mgr

	var captured echo.Context
	e.Use(middleware.Auth(cfg))
	e.GET("/me", func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, captured
}

func TestAuth_ValidToken(t *testing.T) {
	mgr := newTestManager(t)
	u := newTestUser(t, user.RoleUser)

	token, err := mgr.IssueAccessToken(u)
	require.NoError(t, err)

	rec, c := serveAuth(t, mgr, "Bearer "+token)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c)
	assert.Equal(t, u.ID(), middleware.GetUserID(c))
	assert.Equal(t, "maya", middleware.GetUsername(c))
	assert.Equal(t, "maya@example.com", middleware.GetEmail(c))
	assert.Equal(t, user.RoleUser, middleware.GetRole(c))
}

func TestAuth_MissingHeader(t *testing.T) {
	rec, _ := serveAuth(t, newTestManager(t), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	rec, _ := serveAuth(t, newTestManager(t), "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	rec, _ := serveAuth(t, newTestManager(t), "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_TokenSignedWithDifferentSecret(t *testing.T) {
	other := auth.NewJWTManager(auth.JWTConfig{
		AccessSecret:  "someone-elses-secret",
		RefreshSecret: "r",
		ResetSecret:   "p",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
		ResetTTL:      time.Minute,
	})
	token, err := other.IssueAccessToken(newTestUser(t, user.RoleUser))
	require.NoError(t, err)

	rec, _ := serveAuth(t, newTestManager(t), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_SkipPaths(t *testing.T) {
	e := echo.New()
	cfg := middleware.DefaultAuthConfig()
	cfg.Verifier = newTestManager(t)

	e.Use(middleware.Auth(cfg))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	mgr := newTestManager(t)

	e := echo.New()
	cfg := middleware.DefaultAuthConfig()
	cfg.Verifier = mgr
	e.Use(middleware.Auth(cfg))
	e.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, middleware.RequireAdmin())

	regularToken, err := mgr.IssueAccessToken(newTestUser(t, user.RoleUser))
	require.NoError(t, err)
	adminToken, err := mgr.IssueAccessToken(newTestUser(t, user.RoleAdmin))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+regularToken)
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+adminToken)
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUserID_EmptyContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.True(t, middleware.GetUserID(c).IsZero())
	assert.Empty(t, middleware.GetUsername(c))
	assert.Equal(t, user.Role(""), middleware.GetRole(c))
}
