package httpserver_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/infrastructure/httpserver"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httpserver.Response {
	t.Helper()
	var resp httpserver.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRespondOK(t *testing.T) {
	c, rec := newTestContext(t)

	require.NoError(t, httpserver.RespondOK(c, map[string]string{"hello": "world"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestRespondCreated(t *testing.T) {
	c, rec := newTestContext(t)

	require.NoError(t, httpserver.RespondCreated(c, nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestRespondError_DomainErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", errs.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already exists", errs.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"invalid input", errs.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"unauthorized", errs.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", errs.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not acceptable", errs.ErrNotAcceptable, http.StatusNotAcceptable, "NOT_ACCEPTABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t)

			require.NoError(t, httpserver.RespondError(c, tt.err))

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestRespondError_WrappedDomainError(t *testing.T) {
	c, rec := newTestContext(t)

	err := errors.Join(errors.New("context"), errs.ErrForbidden)
	require.NoError(t, httpserver.RespondError(c, err))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRespondErrorWithCode(t *testing.T) {
	c, rec := newTestContext(t)

	require.NoError(t, httpserver.RespondErrorWithCode(c, http.StatusTeapot, "TEAPOT", "short and stout"))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TEAPOT", resp.Error.Code)
	assert.Equal(t, "short and stout", resp.Error.Message)
}
