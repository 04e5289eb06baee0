package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbored-app/unbored/internal/middleware"
)

func TestRecovery_RecoversFromPanic(t *testing.T) {
	var buf bytes.Buffer
	cfg := middleware.DefaultRecoveryConfig()
	cfg.Logger = slog.New(slog.NewJSONHandler(&buf, nil))

	e := echo.New()
	e.Use(middleware.Recovery(cfg))
	e.GET("/panic", func(_ echo.Context) error {
		panic("something went sideways")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])

	out := buf.String()
	assert.Contains(t, out, "panic recovered")
	assert.Contains(t, out, "something went sideways")
	assert.Contains(t, out, "stack")
}

func TestRecovery_LogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	cfg := middleware.DefaultRecoveryConfig()
	cfg.Logger = slog.New(slog.NewJSONHandler(&buf, nil))

	e := echo.New()
	e.Use(middleware.Recovery(cfg))
	e.GET("/panic", func(_ echo.Context) error {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"request_id":"req-7"`)
}

func TestRecovery_PassesThroughNormalRequests(t *testing.T) {
	e := echo.New()
	e.Use(middleware.Recovery(middleware.DefaultRecoveryConfig()))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "fine") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fine", rec.Body.String())
}
