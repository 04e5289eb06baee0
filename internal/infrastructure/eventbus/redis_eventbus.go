// Package eventbus provides Redis Pub/Sub delivery of application notifications
// between API instances.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Default retry configuration constants.
const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultBackoffFactor  = 2.0
	defaultChannelPrefix  = "unbored:events:"
)

// Notification types published on the bus.
const (
	TypeMessageCreated   = "message.created"
	TypeGroupInvitation  = "group.invitation"
	TypeFriendInvitation = "friend.invitation"
	TypeFriendAccepted   = "friend.accepted"
)

// Notification is a fanout message carried over the bus. GroupID targets all
// subscribers of a group feed, UserID targets a single user's connections.
type Notification struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	GroupID    string          `json:"group_id,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Handler is a function that handles bus notifications.
type Handler func(ctx context.Context, n Notification) error

// RetryConfig configures retry behavior for notification handling.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     defaultMaxRetries,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
	}
}

// RedisEventBus delivers notifications between instances using Redis Pub/Sub.
type RedisEventBus struct {
	client        *redis.Client
	pubsub        *redis.PubSub
	pubsubMu      sync.RWMutex
	handlers      map[string][]Handler
	handlersMu    sync.RWMutex
	running       bool
	runningMu     sync.RWMutex
	shutdown      chan struct{}
	wg            sync.WaitGroup
	logger        *slog.Logger
	retryConfig   RetryConfig
	channelPrefix string
}

// Option configures a RedisEventBus.
type Option func(*RedisEventBus)

// WithLogger sets the logger for the event bus.
func WithLogger(logger *slog.Logger) Option {
	return func(b *RedisEventBus) {
		b.logger = logger
	}
}

// WithRetryConfig sets the retry configuration for notification handling.
func WithRetryConfig(config RetryConfig) Option {
	return func(b *RedisEventBus) {
		b.retryConfig = config
	}
}

// WithChannelPrefix sets a prefix for Redis channel names.
func WithChannelPrefix(prefix string) Option {
	return func(b *RedisEventBus) {
		b.channelPrefix = prefix
	}
}

// NewRedisEventBus creates a new Redis-based notification bus.
func NewRedisEventBus(client *redis.Client, opts ...Option) *RedisEventBus {
	b := &RedisEventBus{
		client:        client,
		handlers:      make(map[string][]Handler),
		shutdown:      make(chan struct{}),
		logger:        slog.Default(),
		retryConfig:   DefaultRetryConfig(),
		channelPrefix: defaultChannelPrefix,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Publish publishes a notification to Redis Pub/Sub.
func (b *RedisEventBus) Publish(ctx context.Context, n Notification) error {
	if n.Type == "" {
		return errors.New("notification type cannot be empty")
	}

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	channel := b.channelName(n.Type)

	if publishErr := b.client.Publish(ctx, channel, data).Err(); publishErr != nil {
		return fmt.Errorf("failed to publish notification to Redis: %w", publishErr)
	}

	b.logger.DebugContext(ctx, "notification published",
		slog.String("notification_id", n.ID),
		slog.String("type", n.Type),
		slog.String("channel", channel),
	)

	return nil
}

// Subscribe registers a handler for a specific notification type.
// Handlers are called concurrently when notifications are received.
func (b *RedisEventBus) Subscribe(notificationType string, handler Handler) error {
	if notificationType == "" {
		return errors.New("notification type cannot be empty")
	}
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()

	b.handlers[notificationType] = append(b.handlers[notificationType], handler)

	return nil
}

// Start begins listening for notifications on subscribed channels.
// This method blocks until Shutdown is called or the context is cancelled.
func (b *RedisEventBus) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("event bus is already running")
	}
	b.running = true
	b.runningMu.Unlock()

	channels := b.subscribedChannels()
	if len(channels) == 0 {
		b.logger.WarnContext(ctx, "starting event bus with no subscriptions")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.shutdown:
			return nil
		}
	}

	pubsub := b.client.Subscribe(ctx, channels...)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to channels: %w", err)
	}

	b.pubsubMu.Lock()
	b.pubsub = pubsub
	b.pubsubMu.Unlock()

	b.logger.InfoContext(ctx, "event bus started",
		slog.Int("channel_count", len(channels)),
		slog.Any("channels", channels),
	)

	msgCh := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			b.logger.InfoContext(ctx, "event bus stopping due to context cancellation")
			return ctx.Err()

		case <-b.shutdown:
			b.logger.InfoContext(ctx, "event bus stopping due to shutdown signal")
			return nil

		case msg, ok := <-msgCh:
			if !ok {
				b.logger.WarnContext(ctx, "message channel closed")
				return nil
			}
			b.handleMessage(ctx, msg)
		}
	}
}

// Shutdown gracefully stops the event bus.
// It waits for all pending handlers to complete.
func (b *RedisEventBus) Shutdown() error {
	b.runningMu.Lock()
	if !b.running {
		b.runningMu.Unlock()
		return nil
	}
	b.running = false
	b.runningMu.Unlock()

	close(b.shutdown)

	b.wg.Wait()

	b.pubsubMu.Lock()
	pubsub := b.pubsub
	b.pubsub = nil
	b.pubsubMu.Unlock()

	if pubsub != nil {
		if err := pubsub.Close(); err != nil {
			return fmt.Errorf("failed to close pubsub: %w", err)
		}
	}

	return nil
}

// IsRunning returns true if the event bus is currently running.
func (b *RedisEventBus) IsRunning() bool {
	b.runningMu.RLock()
	defer b.runningMu.RUnlock()
	return b.running
}

// HandlerCount returns the number of handlers registered for a notification type.
func (b *RedisEventBus) HandlerCount(notificationType string) int {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	return len(b.handlers[notificationType])
}

// channelName returns the Redis channel name for a notification type.
func (b *RedisEventBus) channelName(notificationType string) string {
	return b.channelPrefix + notificationType
}

// subscribedChannels returns all Redis channel names for subscribed types.
func (b *RedisEventBus) subscribedChannels() []string {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()

	channels := make([]string, 0, len(b.handlers))
	for notificationType := range b.handlers {
		channels = append(channels, b.channelName(notificationType))
	}
	return channels
}

// handleMessage processes a message received from Redis.
func (b *RedisEventBus) handleMessage(ctx context.Context, msg *redis.Message) {
	var n Notification
	if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
		b.logger.ErrorContext(ctx, "failed to unmarshal notification",
			slog.String("channel", msg.Channel),
			slog.String("error", err.Error()),
		)
		return
	}

	b.handlersMu.RLock()
	handlers := b.handlers[n.Type]
	b.handlersMu.RUnlock()

	for i, handler := range handlers {
		b.wg.Add(1)
		go b.executeHandler(ctx, handler, n, i)
	}
}

// executeHandler runs a single handler with retry logic.
func (b *RedisEventBus) executeHandler(
	ctx context.Context,
	handler Handler,
	n Notification,
	handlerIndex int,
) {
	defer b.wg.Done()

	var lastErr error
	backoff := b.retryConfig.InitialBackoff

	for attempt := 0; attempt <= b.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			b.logger.DebugContext(ctx, "retrying notification handler",
				slog.String("type", n.Type),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
			)

			select {
			case <-ctx.Done():
				b.logger.WarnContext(ctx, "handler retry cancelled",
					slog.String("type", n.Type),
					slog.String("error", ctx.Err().Error()),
				)
				return
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * b.retryConfig.BackoffFactor)
			if backoff > b.retryConfig.MaxBackoff {
				backoff = b.retryConfig.MaxBackoff
			}
		}

		if err := handler(ctx, n); err != nil {
			lastErr = err
			b.logger.WarnContext(ctx, "notification handler failed",
				slog.String("type", n.Type),
				slog.String("notification_id", n.ID),
				slog.Int("handler_index", handlerIndex),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			continue
		}

		b.logger.DebugContext(ctx, "notification handler completed",
			slog.String("type", n.Type),
			slog.String("notification_id", n.ID),
			slog.Int("handler_index", handlerIndex),
		)
		return
	}

	b.logger.ErrorContext(ctx, "notification handler failed after all retries",
		slog.String("type", n.Type),
		slog.String("notification_id", n.ID),
		slog.Int("handler_index", handlerIndex),
		slog.Int("max_retries", b.retryConfig.MaxRetries),
		slog.String("error", lastErr.Error()),
	)
}
