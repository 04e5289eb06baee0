package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/group"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/eventbus"
)

// NotificationPublisher publishes notifications for connected clients.
// Declared on the consumer side per project guidelines.
type NotificationPublisher interface {
	Publish(ctx context.Context, n eventbus.Notification) error
}

// GroupServiceRepository defines the group data access the group service
// needs. Declared on the consumer side per project guidelines.
type GroupServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*group.Group, error)
	Save(ctx context.Context, g *group.Group) error
	AddMember(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	AppendMessage(ctx context.Context, id uuid.UUID, msg group.Message) error
}

// GroupServiceUserRepository defines the user data access the group service
// needs. Declared on the consumer side per project guidelines.
type GroupServiceUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	AddGroupInvitation(ctx context.Context, id uuid.UUID, groupID uuid.UUID) error
	RemoveGroupInvitation(ctx context.Context, id uuid.UUID, groupID uuid.UUID) error
	AddMembership(ctx context.Context, id uuid.UUID, groupID uuid.UUID) error
}

// InviteOutcome describes how an invitation request was resolved. Repeated
// invitations and invitations to current members succeed at the transport
// level without changing any state.
type InviteOutcome string

// Invitation outcomes.
const (
	InviteSent           InviteOutcome = "invitation sent"
	InviteAlreadyPending InviteOutcome = "user already invited"
	InviteAlreadyMember  InviteOutcome = "user already a member"
)

// GroupMessageNotification is the payload published for every appended
// group message.
type GroupMessageNotification struct {
	GroupID  string    `json:"group_id"`
	AuthorID string    `json:"author_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

// GroupInviteNotification is the payload published for a group invitation.
type GroupInviteNotification struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
}

// GroupService implements group creation, the invitation state machine and
// the message log.
type GroupService struct {
	groups     GroupServiceRepository
	users      GroupServiceUserRepository
	transactor Transactor
	publisher  NotificationPublisher
	logger     *slog.Logger
}

// GroupServiceConfig contains dependencies for GroupService.
type GroupServiceConfig struct {
	Groups     GroupServiceRepository
	Users      GroupServiceUserRepository
	Transactor Transactor
	Publisher  NotificationPublisher
	Logger     *slog.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(cfg GroupServiceConfig) *GroupService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GroupService{
		groups:     cfg.Groups,
		users:      cfg.Users,
		transactor: cfg.Transactor,
		publisher:  cfg.Publisher,
		logger:     logger,
	}
}

// CreateGroup creates a group led by the owner, who becomes its first member.
func (s *GroupService) CreateGroup(ctx context.Context, owner uuid.UUID, name string) (*group.Group, error) {
	g, err := group.NewGroup(name, owner)
	if err != nil {
		return nil, err
	}

	txErr := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if saveErr := s.groups.Save(txCtx, g); saveErr != nil {
			return saveErr
		}
		return s.users.AddMembership(txCtx, owner, g.ID())
	})
	if txErr != nil {
		return nil, txErr
	}

	s.logger.InfoContext(ctx, "group created",
		slog.String("group_id", g.ID().String()),
		slog.String("leader", owner.String()),
	)

	return g, nil
}

// ListGroups returns every group the user belongs to. Membership records
// pointing at since-deleted groups are skipped.
func (s *GroupService) ListGroups(ctx context.Context, userID uuid.UUID) ([]*group.Group, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	groups := make([]*group.Group, 0, len(u.Groups()))
	for _, m := range u.Groups() {
		g, findErr := s.groups.FindByID(ctx, m.GroupID)
		if findErr != nil {
			if errors.Is(findErr, errs.ErrNotFound) {
				continue
			}
			return nil, findErr
		}
		groups = append(groups, g)
	}

	return groups, nil
}

// GetGroup returns a group with its message log. Only members may read it.
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID uuid.UUID) (*group.Group, error) {
	g, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsMember(userID) {
		return nil, errs.ErrForbidden
	}
	return g, nil
}

// ListInvitations returns the user's pending group invitations.
func (s *GroupService) ListInvitations(ctx context.Context, userID uuid.UUID) ([]user.GroupInvitation, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.GroupInvitations(), nil
}

// Invite records a pending invitation for the user. An already-pending
// invitation or an existing membership leaves the state untouched.
func (s *GroupService) Invite(ctx context.Context, groupID, userID uuid.UUID) (InviteOutcome, error) {
	g, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return "", err
	}

	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if target.IsGroupMember(groupID) || g.IsMember(userID) {
		return InviteAlreadyMember, nil
	}
	if target.HasGroupInvitation(groupID) {
		return InviteAlreadyPending, nil
	}

	if addErr := s.users.AddGroupInvitation(ctx, userID, groupID); addErr != nil {
		return "", addErr
	}

	s.publish(ctx, eventbus.Notification{
		Type:    eventbus.TypeGroupInvitation,
		UserID:  userID.String(),
		Payload: marshalPayload(s.logger, GroupInviteNotification{GroupID: groupID.String(), GroupName: g.Name()}),
	})

	s.logger.InfoContext(ctx, "group invitation sent",
		slog.String("group_id", groupID.String()),
		slog.String("user_id", userID.String()),
	)

	return InviteSent, nil
}

// AcceptInvitation turns a pending invitation into a membership. Accepting
// without a pending invitation changes nothing and reports success.
func (s *GroupService) AcceptInvitation(ctx context.Context, userID, groupID uuid.UUID) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasGroupInvitation(groupID) {
		return nil
	}

	txErr := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if addErr := s.groups.AddMember(txCtx, groupID, userID); addErr != nil {
			return addErr
		}
		if addErr := s.users.AddMembership(txCtx, userID, groupID); addErr != nil {
			return addErr
		}
		return s.users.RemoveGroupInvitation(txCtx, userID, groupID)
	})
	if txErr != nil {
		return txErr
	}

	s.logger.InfoContext(ctx, "group invitation accepted",
		slog.String("group_id", groupID.String()),
		slog.String("user_id", userID.String()),
	)

	return nil
}

// RejectInvitation drops a pending invitation. Rejecting without one changes
// nothing and reports success.
func (s *GroupService) RejectInvitation(ctx context.Context, userID, groupID uuid.UUID) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasGroupInvitation(groupID) {
		return nil
	}

	return s.users.RemoveGroupInvitation(ctx, userID, groupID)
}

// SendMessage appends a message authored by a current member to the group's
// log and publishes it to the live feed.
func (s *GroupService) SendMessage(
	ctx context.Context,
	userID, groupID uuid.UUID,
	text string,
) (group.Message, error) {
	g, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return group.Message{}, err
	}

	msg, err := g.AppendMessage(userID, text)
	if err != nil {
		return group.Message{}, err
	}

	if appendErr := s.groups.AppendMessage(ctx, groupID, msg); appendErr != nil {
		return group.Message{}, fmt.Errorf("failed to append message: %w", appendErr)
	}

	s.publish(ctx, eventbus.Notification{
		Type:    eventbus.TypeMessageCreated,
		GroupID: groupID.String(),
		UserID:  userID.String(),
		Payload: marshalPayload(s.logger, GroupMessageNotification{
			GroupID:  groupID.String(),
			AuthorID: msg.AuthorID.String(),
			Text:     msg.Text,
			SentAt:   msg.SentAt,
		}),
	})

	return msg, nil
}

// IsMember reports whether the user belongs to the group. A missing group
// counts as non-membership.
func (s *GroupService) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	g, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return g.IsMember(userID), nil
}

// publish delivers a notification on a best-effort basis. The request that
// produced it has already committed.
func (s *GroupService) publish(ctx context.Context, n eventbus.Notification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "failed to publish notification",
			slog.String("type", n.Type),
			slog.String("error", err.Error()),
		)
	}
}

func marshalPayload(logger *slog.Logger, v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("failed to marshal notification payload",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return data
}
