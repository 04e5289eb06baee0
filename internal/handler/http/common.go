// Package httphandler contains the HTTP handlers: thin adapters translating
// requests into service calls and shaping envelope responses.
package httphandler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/httpserver"
	"github.com/unbored-app/unbored/internal/middleware"
)

// MessageResponse carries a human-readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// currentUserID extracts the authenticated user id from the request context.
func currentUserID(c echo.Context) (uuid.UUID, error) {
	userID := middleware.GetUserID(c)
	if userID.IsZero() {
		return uuid.UUID(""), errs.ErrUnauthorized
	}
	return userID, nil
}

// parseIDParam parses a path parameter as a UUID. A malformed id reads as a
// missing resource.
func parseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.ParseUUID(c.Param(name))
	if err != nil {
		return uuid.UUID(""), errs.ErrNotFound
	}
	return id, nil
}

func respondBindError(c echo.Context) error {
	return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
}
