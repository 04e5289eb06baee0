package httphandler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/httpserver"
	"github.com/unbored-app/unbored/internal/service"
)

// FriendService defines the interface for friend operations.
// Declared on the consumer side per project guidelines.
type FriendService interface {
	ListFriends(ctx context.Context, userID uuid.UUID) ([]*user.User, error)
	ListInvitations(ctx context.Context, userID uuid.UUID) ([]user.FriendInvitation, error)
	Invite(ctx context.Context, fromID, toID uuid.UUID) (service.InviteOutcome, error)
	AcceptInvitation(ctx context.Context, userID, fromID uuid.UUID) error
	RejectInvitation(ctx context.Context, userID, fromID uuid.UUID) error
}

// FriendInvitationResponse represents a pending friend invitation.
type FriendInvitationResponse struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendHandler handles friend HTTP requests.
type FriendHandler struct {
	friendService FriendService
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(friendService FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// RegisterRoutes registers friend routes with the router.
func (h *FriendHandler) RegisterRoutes(r *httpserver.Router) {
	r.Auth().GET("/friends", h.List)
	r.Auth().GET("/friends/invitations", h.ListInvitations)
	r.Auth().POST("/friends/invite/:userId", h.Invite)
	r.Auth().POST("/friends/accept/:userId", h.AcceptInvitation)
	r.Auth().POST("/friends/reject/:userId", h.RejectInvitation)
}

// List handles GET /api/v1/friends.
func (h *FriendHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	friends, err := h.friendService.ListFriends(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	profiles := make([]ProfileResponse, 0, len(friends))
	for _, friend := range friends {
		profiles = append(profiles, ToProfileResponse(friend))
	}

	return httpserver.RespondOK(c, profiles)
}

// ListInvitations handles GET /api/v1/friends/invitations.
func (h *FriendHandler) ListInvitations(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	invitations, err := h.friendService.ListInvitations(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	responses := make([]FriendInvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		responses = append(responses, FriendInvitationResponse{
			UserID:    inv.UserID.String(),
			CreatedAt: inv.CreatedAt,
		})
	}

	return httpserver.RespondOK(c, responses)
}

// Invite handles POST /api/v1/friends/invite/:userId.
func (h *FriendHandler) Invite(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	targetID, err := parseIDParam(c, "userId")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	outcome, err := h.friendService.Invite(c.Request().Context(), userID, targetID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: string(outcome)})
}

// AcceptInvitation handles POST /api/v1/friends/accept/:userId.
func (h *FriendHandler) AcceptInvitation(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	fromID, err := parseIDParam(c, "userId")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if acceptErr := h.friendService.AcceptInvitation(c.Request().Context(), userID, fromID); acceptErr != nil {
		return httpserver.RespondError(c, acceptErr)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: "Invitation accepted"})
}

// RejectInvitation handles POST /api/v1/friends/reject/:userId.
func (h *FriendHandler) RejectInvitation(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	fromID, err := parseIDParam(c, "userId")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if rejectErr := h.friendService.RejectInvitation(c.Request().Context(), userID, fromID); rejectErr != nil {
		return httpserver.RespondError(c, rejectErr)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: "Invitation rejected"})
}
