// Package websocket provides the HTTP endpoint for live group-message feeds.
package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/auth"
	ws "github.com/unbored-app/unbored/internal/infrastructure/websocket"
	"github.com/unbored-app/unbored/internal/middleware"
)

// Handler configuration constants.
const (
	defaultHandlerReadBufferSize  = 1024
	defaultHandlerWriteBufferSize = 1024
)

// TokenVerifier validates access tokens presented on the upgrade request.
// Declared on the consumer side.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.AccessClaims, error)
}

// GroupAccess answers whether a user may subscribe to a group feed.
type GroupAccess interface {
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

// Handler handles WebSocket upgrade requests for group feeds.
type Handler struct {
	hub          *ws.Hub
	upgrader     websocket.Upgrader
	verifier     TokenVerifier
	groups       GroupAccess
	logger       *slog.Logger
	clientConfig ws.ClientConfig
}

// HandlerConfig holds configuration for the WebSocket handler.
type HandlerConfig struct {
	// ReadBufferSize is the size of the read buffer for WebSocket connections.
	ReadBufferSize int

	// WriteBufferSize is the size of the write buffer for WebSocket connections.
	WriteBufferSize int

	// CheckOrigin returns true if the request origin is acceptable.
	// If nil, all origins are allowed.
	CheckOrigin func(r *http.Request) bool

	// Logger is the structured logger for the handler.
	Logger *slog.Logger

	// ClientConfig is the configuration for WebSocket clients.
	ClientConfig ws.ClientConfig
}

// DefaultHandlerConfig returns a default configuration.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		ReadBufferSize:  defaultHandlerReadBufferSize,
		WriteBufferSize: defaultHandlerWriteBufferSize,
		CheckOrigin:     nil,
		Logger:          slog.Default(),
		ClientConfig:    ws.DefaultClientConfig(),
	}
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger for the handler.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithTokenVerifier sets the token verifier for the handler.
func WithTokenVerifier(verifier TokenVerifier) HandlerOption {
	return func(h *Handler) {
		h.verifier = verifier
	}
}

// WithHandlerConfig sets the handler configuration.
func WithHandlerConfig(config HandlerConfig) HandlerOption {
	return func(h *Handler) {
		h.upgrader.ReadBufferSize = config.ReadBufferSize
		h.upgrader.WriteBufferSize = config.WriteBufferSize
		if config.CheckOrigin != nil {
			h.upgrader.CheckOrigin = config.CheckOrigin
		}
		if config.Logger != nil {
			h.logger = config.Logger
		}
		h.clientConfig = config.ClientConfig
	}
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *ws.Hub, groups GroupAccess, opts ...HandlerOption) *Handler {
	h := &Handler{
		hub:    hub,
		groups: groups,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  defaultHandlerReadBufferSize,
			WriteBufferSize: defaultHandlerWriteBufferSize,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:       slog.Default(),
		clientConfig: ws.DefaultClientConfig(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// HandleGroupFeed handles WebSocket upgrade requests for a group's live
// message feed. The caller must be authenticated and a member of the group.
func (h *Handler) HandleGroupFeed(c echo.Context) error {
	userID := h.getUserID(c)
	if userID.IsZero() {
		h.logger.Warn("websocket connection rejected: authentication required",
			slog.String("remote_ip", c.RealIP()),
		)
		return respondJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}

	groupID, err := uuid.ParseUUID(c.Param("id"))
	if err != nil {
		return respondJSON(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid group id")
	}

	member, err := h.groups.IsMember(c.Request().Context(), groupID, userID)
	if err != nil {
		h.logger.Error("group membership check failed",
			slog.String("group_id", groupID.String()),
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
		return respondJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
	if !member {
		h.logger.Warn("websocket connection rejected: not a group member",
			slog.String("group_id", groupID.String()),
			slog.String("user_id", userID.String()),
		)
		return respondJSON(c, http.StatusForbidden, "FORBIDDEN", "Not a member of this group")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
		return nil // Upgrade already sent an error response
	}

	client := ws.NewClient(
		h.hub,
		conn,
		userID,
		ws.WithClientConfig(h.clientConfig),
		ws.WithClientLogger(h.logger),
	)

	h.hub.Register(client)
	h.hub.JoinGroup(client, groupID)

	h.logger.Info("websocket connection established",
		slog.String("user_id", userID.String()),
		slog.String("group_id", groupID.String()),
		slog.String("remote_ip", c.RealIP()),
	)

	go client.WritePump()
	go client.ReadPump()

	return nil
}

// getUserID extracts the user ID from the echo context or validates the token.
// Browsers cannot set headers on WebSocket upgrades, so a token query
// parameter is accepted as well.
func (h *Handler) getUserID(c echo.Context) uuid.UUID {
	if userID := middleware.GetUserID(c); !userID.IsZero() {
		return userID
	}

	token := c.QueryParam("token")
	if token == "" {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			token = after
		}
	}

	if token == "" || h.verifier == nil {
		return uuid.UUID("")
	}

	claims, err := h.verifier.VerifyAccessToken(token)
	if err != nil {
		h.logger.Debug("token verification failed",
			slog.String("error", err.Error()),
		)
		return uuid.UUID("")
	}

	userID, err := uuid.ParseUUID(claims.UserID)
	if err != nil {
		return uuid.UUID("")
	}
	return userID
}

func respondJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// RegisterRoutes registers the WebSocket endpoint with the Echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/groups/:id", h.HandleGroupFeed)
}
