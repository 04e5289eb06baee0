package httphandler_test

import (
	"context"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/group"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	httphandler "github.com/unbored-app/unbored/internal/handler/http"
	"github.com/unbored-app/unbored/internal/service"
)

type mockGroupService struct {
	createFunc          func(ctx context.Context, owner uuid.UUID, name string) (*group.Group, error)
	listFunc            func(ctx context.Context, userID uuid.UUID) ([]*group.Group, error)
	getFunc             func(ctx context.Context, userID, groupID uuid.UUID) (*group.Group, error)
	listInvitationsFunc func(ctx context.Context, userID uuid.UUID) ([]user.GroupInvitation, error)
	inviteFunc          func(ctx context.Context, groupID, userID uuid.UUID) (service.InviteOutcome, error)
	acceptFunc          func(ctx context.Context, userID, groupID uuid.UUID) error
	rejectFunc          func(ctx context.Context, userID, groupID uuid.UUID) error
	sendMessageFunc     func(ctx context.Context, userID, groupID uuid.UUID, text string) (group.Message, error)
}

func (m *mockGroupService) CreateGroup(ctx context.Context, owner uuid.UUID, name string) (*group.Group, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, owner, name)
	}
	return nil, errs.ErrInvalidInput
}

func (m *mockGroupService) ListGroups(ctx context.Context, userID uuid.UUID) ([]*group.Group, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockGroupService) GetGroup(ctx context.Context, userID, groupID uuid.UUID) (*group.Group, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, groupID)
	}
	return nil, errs.ErrNotFound
}

func (m *mockGroupService) ListInvitations(ctx context.Context, userID uuid.UUID) ([]user.GroupInvitation, error) {
	if m.listInvitationsFunc != nil {
		return m.listInvitationsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockGroupService) Invite(ctx context.Context, groupID, userID uuid.UUID) (service.InviteOutcome, error) {
	if m.inviteFunc != nil {
		return m.inviteFunc(ctx, groupID, userID)
	}
	return "", errs.ErrNotFound
}

func (m *mockGroupService) AcceptInvitation(ctx context.Context, userID, groupID uuid.UUID) error {
	if m.acceptFunc != nil {
		return m.acceptFunc(ctx, userID, groupID)
	}
	return nil
}

func (m *mockGroupService) RejectInvitation(ctx context.Context, userID, groupID uuid.UUID) error {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, userID, groupID)
	}
	return nil
}

func (m *mockGroupService) SendMessage(
	ctx context.Context,
	userID, groupID uuid.UUID,
	text string,
) (group.Message, error) {
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(ctx, userID, groupID, text)
	}
	return group.Message{}, errs.ErrNotFound
}

func TestGroupHandler_Create(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		e := echo.New()
		owner := uuid.NewUUID()
		mockService := &mockGroupService{
			createFunc: func(_ context.Context, o uuid.UUID, name string) (*group.Group, error) {
				assert.Equal(t, owner, o)
				assert.Equal(t, "hiking crew", name)
				return newHandlerTestGroup(t, o, name), nil
			},
		}
		handler := httphandler.NewGroupHandler(mockService)

		c, rec := newJSONContext(e, stdhttp.MethodPost, "/api/v1/groups", `{"name":"hiking crew"}`)
		setupAuthContext(c, owner)

		require.NoError(t, handler.Create(c))
		assert.Equal(t, stdhttp.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "hiking crew")
	})

	t.Run("duplicate name", func(t *testing.T) {
		e := echo.New()
		mockService := &mockGroupService{
			createFunc: func(context.Context, uuid.UUID, string) (*group.Group, error) {
				return nil, errs.ErrAlreadyExists
			},
		}
		handler := httphandler.NewGroupHandler(mockService)

		c, rec := newJSONContext(e, stdhttp.MethodPost, "/api/v1/groups", `{"name":"hiking crew"}`)
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.Create(c))
		assert.Equal(t, stdhttp.StatusConflict, rec.Code)
	})
}

func TestGroupHandler_Get(t *testing.T) {
	t.Run("outsider is forbidden", func(t *testing.T) {
		e := echo.New()
		mockService := &mockGroupService{
			getFunc: func(context.Context, uuid.UUID, uuid.UUID) (*group.Group, error) {
				return nil, errs.ErrForbidden
			},
		}
		handler := httphandler.NewGroupHandler(mockService)

		c, rec := newJSONContext(e, stdhttp.MethodGet, "/api/v1/groups/x", "")
		c.SetParamNames("id")
		c.SetParamValues(uuid.NewUUID().String())
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.Get(c))
		assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	})

	t.Run("member reads the log", func(t *testing.T) {
		e := echo.New()
		member := uuid.NewUUID()
		g := newHandlerTestGroup(t, member, "hiking crew")
		_, err := g.AppendMessage(member, "meet at nine")
		require.NoError(t, err)
		mockService := &mockGroupService{
			getFunc: func(context.Context, uuid.UUID, uuid.UUID) (*group.Group, error) {
				return g, nil
			},
		}
		handler := httphandler.NewGroupHandler(mockService)

		c, rec := newJSONContext(e, stdhttp.MethodGet, "/api/v1/groups/x", "")
		c.SetParamNames("id")
		c.SetParamValues(g.ID().String())
		setupAuthContext(c, member)

		require.NoError(t, handler.Get(c))
		assert.Equal(t, stdhttp.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "meet at nine")
	})
}

func TestGroupHandler_Invite(t *testing.T) {
	t.Run("outcome is reported as the message", func(t *testing.T) {
		e := echo.New()
		groupID := uuid.NewUUID()
		targetID := uuid.NewUUID()
		mockService := &mockGroupService{
			inviteFunc: func(_ context.Context, g, u uuid.UUID) (service.InviteOutcome, error) {
				assert.Equal(t, groupID, g)
				assert.Equal(t, targetID, u)
				return service.InviteAlreadyPending, nil
			},
		}
		handler := httphandler.NewGroupHandler(mockService)

		c, rec := newJSONContext(e, stdhttp.MethodPost, "/api/v1/groups/x/invite/y", "")
		c.SetParamNames("id", "userId")
		c.SetParamValues(groupID.String(), targetID.String())
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.Invite(c))
		assert.Equal(t, stdhttp.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), string(service.InviteAlreadyPending))
	})

	t.Run("unknown group", func(t *testing.T) {
		e := echo.New()
		handler := httphandler.NewGroupHandler(&mockGroupService{})

		c, rec := newJSONContext(e, stdhttp.MethodPost, "/api/v1/groups/x/invite/y", "")
		c.SetParamNames("id", "userId")
		c.SetParamValues(uuid.NewUUID().String(), uuid.NewUUID().String())
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.Invite(c))
		assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	})
}

func TestGroupHandler_SendMessage(t *testing.T) {
	t.Run("message appended", func(t *testing.T) {
		e := echo.New()
		author := uuid.NewUUID()
		mockService := &mockGroupService{
			sendMessageFunc: func(_ context.Context, userID, _ uuid.UUID, text string) (group.Message, error) {
				assert.Equal(t, author, userID)
				assert.Equal(t, "on my way", text)
				return group.Message{AuthorID: userID, Text: text, SentAt: time.Now().UTC()}, nil
			},
		}
		handler := httphandler.NewGroupHandler(mockService)

		c, rec := newJSONContext(e, stdhttp.MethodPost, "/api/v1/groups/x/messages", `{"text":"on my way"}`)
		c.SetParamNames("id")
		c.SetParamValues(uuid.NewUUID().String())
		setupAuthContext(c, author)

		require.NoError(t, handler.SendMessage(c))
		assert.Equal(t, stdhttp.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "on my way")
	})

	t.Run("non-member", func(t *testing.T) {
		e := echo.New()
		mockService := &mockGroupService{
			sendMessageFunc: func(context.Context, uuid.UUID, uuid.UUID, string) (group.Message, error) {
				return group.Message{}, errs.ErrForbidden
			},
		}
		handler := httphandler.NewGroupHandler(mockService)

		c, rec := newJSONContext(e, stdhttp.MethodPost, "/api/v1/groups/x/messages", `{"text":"hi"}`)
		c.SetParamNames("id")
		c.SetParamValues(uuid.NewUUID().String())
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.SendMessage(c))
		assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	})
}

func TestGroupHandler_ListInvitations(t *testing.T) {
	e := echo.New()
	groupID := uuid.NewUUID()
	mockService := &mockGroupService{
		listInvitationsFunc: func(context.Context, uuid.UUID) ([]user.GroupInvitation, error) {
			return []user.GroupInvitation{{GroupID: groupID, CreatedAt: time.Now().UTC()}}, nil
		},
	}
	handler := httphandler.NewGroupHandler(mockService)

	c, rec := newJSONContext(e, stdhttp.MethodGet, "/api/v1/groups/invitations", "")
	setupAuthContext(c, uuid.NewUUID())

	require.NoError(t, handler.ListInvitations(c))
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), groupID.String())
}

func TestGroupHandler_AcceptInvitation(t *testing.T) {
	e := echo.New()
	userID := uuid.NewUUID()
	groupID := uuid.NewUUID()
	var gotUser, gotGroup uuid.UUID
	mockService := &mockGroupService{
		acceptFunc: func(_ context.Context, u, g uuid.UUID) error {
			gotUser, gotGroup = u, g
			return nil
		},
	}
	handler := httphandler.NewGroupHandler(mockService)

	c, rec := newJSONContext(e, stdhttp.MethodPost, "/api/v1/groups/x/accept", "")
	c.SetParamNames("id")
	c.SetParamValues(groupID.String())
	setupAuthContext(c, userID)

	require.NoError(t, handler.AcceptInvitation(c))
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, groupID, gotGroup)
}
