package websocket_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/eventbus"
	ws "github.com/unbored-app/unbored/internal/infrastructure/websocket"
)

// fakeBus records subscriptions so tests can invoke handlers directly.
type fakeBus struct {
	handlers map[string][]eventbus.Handler
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string][]eventbus.Handler)}
}

func (f *fakeBus) Subscribe(notificationType string, handler eventbus.Handler) error {
	f.handlers[notificationType] = append(f.handlers[notificationType], handler)
	return nil
}

func (f *fakeBus) emit(t *testing.T, n eventbus.Notification) {
	t.Helper()
	for _, h := range f.handlers[n.Type] {
		require.NoError(t, h(context.Background(), n))
	}
}

func TestBroadcaster_SubscribesToDefaultTypes(t *testing.T) {
	hub := ws.NewHub()
	bus := newFakeBus()

	b := ws.NewBroadcaster(hub, bus)
	require.NoError(t, b.Start(context.Background()))

	assert.True(t, b.IsRunning())
	for _, typ := range ws.DefaultNotificationTypes() {
		assert.Len(t, bus.handlers[typ], 1, "expected subscription for %s", typ)
	}
}

func TestBroadcaster_RoutesGroupMessagesToFeed(t *testing.T) {
	hub := startHub(t)
	bus := newFakeBus()
	b := ws.NewBroadcaster(hub, bus)
	require.NoError(t, b.Start(context.Background()))

	groupID := uuid.NewUUID()
	client, remote := registerClient(t, hub, uuid.NewUUID())
	hub.JoinGroup(client, groupID)

	payload, err := json.Marshal(map[string]string{"text": "picnic at noon"})
	require.NoError(t, err)

	bus.emit(t, eventbus.Notification{
		Type:    eventbus.TypeMessageCreated,
		GroupID: groupID.String(),
		Payload: payload,
	})

	require.NoError(t, remote.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := remote.ReadMessage()
	require.NoError(t, err)

	var msg ws.OutboundMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, eventbus.TypeMessageCreated, msg.Type)
	assert.Equal(t, groupID.String(), msg.GroupID)
	assert.JSONEq(t, string(payload), string(msg.Data))
}

func TestBroadcaster_RoutesInvitationsToUser(t *testing.T) {
	hub := startHub(t)
	bus := newFakeBus()
	b := ws.NewBroadcaster(hub, bus)
	require.NoError(t, b.Start(context.Background()))

	userID := uuid.NewUUID()
	_, remote := registerClient(t, hub, userID)

	bus.emit(t, eventbus.Notification{
		Type:   eventbus.TypeFriendInvitation,
		UserID: userID.String(),
	})

	require.NoError(t, remote.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := remote.ReadMessage()
	require.NoError(t, err)

	var msg ws.OutboundMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, eventbus.TypeFriendInvitation, msg.Type)
}

func TestBroadcaster_IgnoresMalformedTargets(t *testing.T) {
	hub := startHub(t)
	bus := newFakeBus()
	b := ws.NewBroadcaster(hub, bus)
	require.NoError(t, b.Start(context.Background()))

	// handler must not error on garbage ids, just drop them
	bus.emit(t, eventbus.Notification{
		Type:    eventbus.TypeMessageCreated,
		GroupID: "not-a-uuid",
	})
}
