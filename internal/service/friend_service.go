package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/eventbus"
)

// FriendServiceUserRepository defines the user data access the friend service
// needs. Declared on the consumer side per project guidelines.
type FriendServiceUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	AddFriendInvitation(ctx context.Context, id uuid.UUID, fromUserID uuid.UUID) error
	RemoveFriendInvitation(ctx context.Context, id uuid.UUID, fromUserID uuid.UUID) error
	AddFriend(ctx context.Context, id uuid.UUID, friendID uuid.UUID) error
}

// FriendInviteNotification is the payload published for friend invitations
// and acceptances.
type FriendInviteNotification struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// FriendService implements the friend invitation state machine, mirroring the
// group one: invite, accept, reject, list.
type FriendService struct {
	users      FriendServiceUserRepository
	transactor Transactor
	publisher  NotificationPublisher
	logger     *slog.Logger
}

// FriendServiceConfig contains dependencies for FriendService.
type FriendServiceConfig struct {
	Users      FriendServiceUserRepository
	Transactor Transactor
	Publisher  NotificationPublisher
	Logger     *slog.Logger
}

// NewFriendService creates a new FriendService.
func NewFriendService(cfg FriendServiceConfig) *FriendService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FriendService{
		users:      cfg.Users,
		transactor: cfg.Transactor,
		publisher:  cfg.Publisher,
		logger:     logger,
	}
}

// ListFriends resolves the user's friend references to profiles. References
// to since-deleted accounts are skipped.
func (s *FriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]*user.User, 0, len(u.Friends()))
	for _, id := range u.Friends() {
		friend, findErr := s.users.FindByID(ctx, id)
		if findErr != nil {
			if errors.Is(findErr, errs.ErrNotFound) {
				continue
			}
			return nil, findErr
		}
		friends = append(friends, friend)
	}

	return friends, nil
}

// ListInvitations returns the user's pending friend invitations.
func (s *FriendService) ListInvitations(ctx context.Context, userID uuid.UUID) ([]user.FriendInvitation, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.FriendInvitations(), nil
}

// Invite records a pending friend invitation from one user to another. An
// already-pending invitation or an existing friendship leaves the state
// untouched; self-invitations are rejected.
func (s *FriendService) Invite(ctx context.Context, fromID, toID uuid.UUID) (InviteOutcome, error) {
	if fromID == toID {
		return "", errs.ErrInvalidInput
	}

	from, err := s.users.FindByID(ctx, fromID)
	if err != nil {
		return "", err
	}

	target, err := s.users.FindByID(ctx, toID)
	if err != nil {
		return "", err
	}

	if target.IsFriend(fromID) {
		return InviteAlreadyMember, nil
	}
	if target.HasFriendInvitation(fromID) {
		return InviteAlreadyPending, nil
	}

	if addErr := s.users.AddFriendInvitation(ctx, toID, fromID); addErr != nil {
		return "", addErr
	}

	s.publish(ctx, eventbus.Notification{
		Type:   eventbus.TypeFriendInvitation,
		UserID: toID.String(),
		Payload: marshalPayload(s.logger, FriendInviteNotification{
			UserID:   fromID.String(),
			Username: from.Username(),
		}),
	})

	s.logger.InfoContext(ctx, "friend invitation sent",
		slog.String("from", fromID.String()),
		slog.String("to", toID.String()),
	)

	return InviteSent, nil
}

// AcceptInvitation turns a pending friend invitation into a mutual
// friendship. Accepting without a pending invitation changes nothing and
// reports success.
func (s *FriendService) AcceptInvitation(ctx context.Context, userID, fromID uuid.UUID) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasFriendInvitation(fromID) {
		return nil
	}

	txErr := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if addErr := s.users.AddFriend(txCtx, userID, fromID); addErr != nil {
			return addErr
		}
		if addErr := s.users.AddFriend(txCtx, fromID, userID); addErr != nil {
			return addErr
		}
		return s.users.RemoveFriendInvitation(txCtx, userID, fromID)
	})
	if txErr != nil {
		return txErr
	}

	s.publish(ctx, eventbus.Notification{
		Type:   eventbus.TypeFriendAccepted,
		UserID: fromID.String(),
		Payload: marshalPayload(s.logger, FriendInviteNotification{
			UserID:   userID.String(),
			Username: u.Username(),
		}),
	})

	s.logger.InfoContext(ctx, "friend invitation accepted",
		slog.String("user_id", userID.String()),
		slog.String("from", fromID.String()),
	)

	return nil
}

// RejectInvitation drops a pending friend invitation. Rejecting without one
// changes nothing and reports success.
func (s *FriendService) RejectInvitation(ctx context.Context, userID, fromID uuid.UUID) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasFriendInvitation(fromID) {
		return nil
	}

	return s.users.RemoveFriendInvitation(ctx, userID, fromID)
}

func (s *FriendService) publish(ctx context.Context, n eventbus.Notification) {
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
