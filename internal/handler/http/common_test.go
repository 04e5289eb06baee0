package httphandler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/unbored-app/unbored/internal/domain/event"
	"github.com/unbored-app/unbored/internal/domain/group"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/httpserver"
	"github.com/unbored-app/unbored/internal/middleware"
)

// setupAuthContext seeds the context the way the auth middleware does.
func setupAuthContext(c echo.Context, userID uuid.UUID) {
	c.Set(string(middleware.ContextKeyUserID), userID)
	c.Set(string(middleware.ContextKeyUsername), "maya")
	c.Set(string(middleware.ContextKeyEmail), "maya@example.com")
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// newMultipartContext builds a request carrying one file under the given
// form field.
func newMultipartContext(
	t *testing.T,
	e *echo.Echo,
	target, field, filename string,
	content []byte,
) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(stdhttp.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httpserver.Response {
	t.Helper()
	var resp httpserver.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func newHandlerTestUser(t *testing.T, username string) *user.User {
	t.Helper()
	u, err := user.NewUser(username, username+"@example.com", "", "hash")
	require.NoError(t, err)
	return u
}

func newHandlerTestEvent(t *testing.T, creator uuid.UUID, name string) *event.Event {
	t.Helper()
	e, err := event.NewEvent(creator, false, event.Details{
		Name:       name,
		Categories: []string{"outdoor"},
	})
	require.NoError(t, err)
	return e
}

func newHandlerTestGroup(t *testing.T, leader uuid.UUID, name string) *group.Group {
	t.Helper()
	g, err := group.NewGroup(name, leader)
	require.NoError(t, err)
	return g
}
