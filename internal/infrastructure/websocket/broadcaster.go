package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/eventbus"
)

// NotificationBus defines the interface for subscribing to bus notifications.
// Declared on the consumer side.
type NotificationBus interface {
	Subscribe(notificationType string, handler eventbus.Handler) error
}

// OutboundMessage represents a message sent over WebSocket to clients.
type OutboundMessage struct {
	Type    string          `json:"type"`
	GroupID string          `json:"group_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Broadcaster listens to the notification bus and fans notifications out to
// the hub. Group messages reach every feed subscriber, invitation events reach
// the invited user's connections.
type Broadcaster struct {
	hub    *Hub
	bus    NotificationBus
	logger *slog.Logger

	// notificationTypes lists which bus types to subscribe to.
	notificationTypes []string

	// running indicates if the broadcaster is active.
	running bool

	// runningMu protects the running flag.
	runningMu sync.RWMutex
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithBroadcasterLogger sets the logger for the broadcaster.
func WithBroadcasterLogger(logger *slog.Logger) BroadcasterOption {
	return func(b *Broadcaster) {
		b.logger = logger
	}
}

// WithNotificationTypes sets which notification types to subscribe to.
func WithNotificationTypes(types []string) BroadcasterOption {
	return func(b *Broadcaster) {
		b.notificationTypes = types
	}
}

// DefaultNotificationTypes returns the notification types broadcast by default.
func DefaultNotificationTypes() []string {
	return []string{
		eventbus.TypeMessageCreated,
		eventbus.TypeGroupInvitation,
		eventbus.TypeFriendInvitation,
		eventbus.TypeFriendAccepted,
	}
}

// NewBroadcaster creates a new Broadcaster.
func NewBroadcaster(hub *Hub, bus NotificationBus, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		hub:               hub,
		bus:               bus,
		logger:            slog.Default(),
		notificationTypes: DefaultNotificationTypes(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Start subscribes to the notification bus. It registers handlers and returns
// without blocking.
func (b *Broadcaster) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return nil
	}
	b.running = true
	b.runningMu.Unlock()

	for _, notificationType := range b.notificationTypes {
		if err := b.bus.Subscribe(notificationType, b.handleNotification); err != nil {
			b.logger.ErrorContext(ctx, "failed to subscribe to notification type",
				slog.String("type", notificationType),
				slog.String("error", err.Error()),
			)
			return err
		}
		b.logger.DebugContext(ctx, "subscribed to notification type",
			slog.String("type", notificationType),
		)
	}

	b.logger.InfoContext(ctx, "websocket broadcaster started",
		slog.Int("notification_types", len(b.notificationTypes)),
	)

	return nil
}

// IsRunning returns whether the broadcaster is running.
func (b *Broadcaster) IsRunning() bool {
	b.runningMu.RLock()
	defer b.runningMu.RUnlock()
	return b.running
}

// handleNotification routes a bus notification to the right hub target.
func (b *Broadcaster) handleNotification(ctx context.Context, n eventbus.Notification) error {
	msg := OutboundMessage{
		Type:    n.Type,
		GroupID: n.GroupID,
		Data:    n.Payload,
	}

	messageBytes, err := json.Marshal(msg)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to marshal websocket message",
			slog.String("type", n.Type),
			slog.String("error", err.Error()),
		)
		return err
	}

	switch {
	case n.GroupID != "":
		groupID, parseErr := uuid.ParseUUID(n.GroupID)
		if parseErr != nil {
			b.logger.WarnContext(ctx, "notification carries malformed group id",
				slog.String("type", n.Type),
				slog.String("group_id", n.GroupID),
			)
			return nil
		}
		b.hub.BroadcastToGroup(groupID, messageBytes)
		b.logger.DebugContext(ctx, "broadcast message to group feed",
			slog.String("type", n.Type),
			slog.String("group_id", n.GroupID),
		)

	case n.UserID != "":
		userID, parseErr := uuid.ParseUUID(n.UserID)
		if parseErr != nil {
			b.logger.WarnContext(ctx, "notification carries malformed user id",
				slog.String("type", n.Type),
				slog.String("user_id", n.UserID),
			)
			return nil
		}
		b.hub.SendToUser(userID, messageBytes)
		b.logger.DebugContext(ctx, "sent message to user",
			slog.String("type", n.Type),
			slog.String("user_id", n.UserID),
		)

	default:
		b.logger.DebugContext(ctx, "notification not routable",
			slog.String("type", n.Type),
		)
	}

	return nil
}
