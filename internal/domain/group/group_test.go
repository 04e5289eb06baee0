package group_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/group"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

func TestNewGroup_LeaderIsFirstMember(t *testing.T) {
	leader := uuid.NewUUID()

	g, err := group.NewGroup("climbers", leader)
	require.NoError(t, err)

	assert.Equal(t, leader, g.Leader())
	assert.True(t, g.IsMember(leader))
	assert.Len(t, g.Members(), 1)
}

func TestNewGroup_Validation(t *testing.T) {
	_, err := group.NewGroup("", uuid.NewUUID())
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = group.NewGroup("climbers", "")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestAddMember_Idempotent(t *testing.T) {
	g, err := group.NewGroup("climbers", uuid.NewUUID())
	require.NoError(t, err)

	member := uuid.NewUUID()
	g.AddMember(member)
	g.AddMember(member)

	assert.True(t, g.IsMember(member))
	assert.Len(t, g.Members(), 2)
}

func TestAppendMessage(t *testing.T) {
	leader := uuid.NewUUID()
	g, err := group.NewGroup("climbers", leader)
	require.NoError(t, err)

	msg, err := g.AppendMessage(leader, "hello")
	require.NoError(t, err)
	assert.Equal(t, leader, msg.AuthorID)
	assert.Equal(t, "hello", msg.Text)
	assert.False(t, msg.SentAt.IsZero())
	assert.Len(t, g.Messages(), 1)
}

func TestAppendMessage_NonMemberForbidden(t *testing.T) {
	g, err := group.NewGroup("climbers", uuid.NewUUID())
	require.NoError(t, err)

	_, err = g.AppendMessage(uuid.NewUUID(), "hello")
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.Empty(t, g.Messages())
}

func TestAppendMessage_EmptyText(t *testing.T) {
	leader := uuid.NewUUID()
	g, err := group.NewGroup("climbers", leader)
	require.NoError(t, err)

	_, err = g.AppendMessage(leader, "")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
