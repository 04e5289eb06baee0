package httphandler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unbored-app/unbored/internal/domain/group"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/httpserver"
	"github.com/unbored-app/unbored/internal/service"
)

// GroupService defines the interface for group operations.
// Declared on the consumer side per project guidelines.
type GroupService interface {
	CreateGroup(ctx context.Context, owner uuid.UUID, name string) (*group.Group, error)
	ListGroups(ctx context.Context, userID uuid.UUID) ([]*group.Group, error)
	GetGroup(ctx context.Context, userID, groupID uuid.UUID) (*group.Group, error)
	ListInvitations(ctx context.Context, userID uuid.UUID) ([]user.GroupInvitation, error)
	Invite(ctx context.Context, groupID, userID uuid.UUID) (service.InviteOutcome, error)
	AcceptInvitation(ctx context.Context, userID, groupID uuid.UUID) error
	RejectInvitation(ctx context.Context, userID, groupID uuid.UUID) error
	SendMessage(ctx context.Context, userID, groupID uuid.UUID, text string) (group.Message, error)
}

// CreateGroupRequest represents a group creation request.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// SendMessageRequest carries a message for the group log.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// GroupMessageResponse represents a group message in API responses.
type GroupMessageResponse struct {
	AuthorID string    `json:"author_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Leader    string                 `json:"leader"`
	Members   []string               `json:"members"`
	Messages  []GroupMessageResponse `json:"messages"`
	CreatedAt string                 `json:"created_at"`
}

// GroupInvitationResponse represents a pending group invitation.
type GroupInvitationResponse struct {
	GroupID   string    `json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupHandler handles group HTTP requests.
type GroupHandler struct {
	groupService GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// RegisterRoutes registers group routes with the router.
func (h *GroupHandler) RegisterRoutes(r *httpserver.Router) {
	r.Auth().GET("/groups", h.List)
	r.Auth().GET("/groups/invitations", h.ListInvitations)
	r.Auth().GET("/groups/:id", h.Get)
	r.Auth().POST("/groups", h.Create)
	r.Auth().POST("/groups/:id/invite/:userId", h.Invite)
	r.Auth().POST("/groups/:id/accept", h.AcceptInvitation)
	r.Auth().POST("/groups/:id/reject", h.RejectInvitation)
	r.Auth().POST("/groups/:id/messages", h.SendMessage)
}

// List handles GET /api/v1/groups.
func (h *GroupHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	groups, err := h.groupService.ListGroups(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	responses := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		responses = append(responses, ToGroupResponse(g))
	}

	return httpserver.RespondOK(c, responses)
}

// Get handles GET /api/v1/groups/:id. Members only.
func (h *GroupHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	g, err := h.groupService.GetGroup(c.Request().Context(), userID, groupID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToGroupResponse(g))
}

// Create handles POST /api/v1/groups.
func (h *GroupHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	var req CreateGroupRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	g, err := h.groupService.CreateGroup(c.Request().Context(), userID, req.Name)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, ToGroupResponse(g))
}

// ListInvitations handles GET /api/v1/groups/invitations.
func (h *GroupHandler) ListInvitations(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	invitations, err := h.groupService.ListInvitations(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	responses := make([]GroupInvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		responses = append(responses, GroupInvitationResponse{
			GroupID:   inv.GroupID.String(),
			CreatedAt: inv.CreatedAt,
		})
	}

	return httpserver.RespondOK(c, responses)
}

// Invite handles POST /api/v1/groups/:id/invite/:userId.
func (h *GroupHandler) Invite(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return httpserver.RespondError(c, err)
	}

	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	targetID, err := parseIDParam(c, "userId")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	outcome, err := h.groupService.Invite(c.Request().Context(), groupID, targetID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: string(outcome)})
}

// AcceptInvitation handles POST /api/v1/groups/:id/accept.
func (h *GroupHandler) AcceptInvitation(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if acceptErr := h.groupService.AcceptInvitation(c.Request().Context(), userID, groupID); acceptErr != nil {
		return httpserver.RespondError(c, acceptErr)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: "Invitation accepted"})
}

// RejectInvitation handles POST /api/v1/groups/:id/reject.
func (h *GroupHandler) RejectInvitation(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if rejectErr := h.groupService.RejectInvitation(c.Request().Context(), userID, groupID); rejectErr != nil {
		return httpserver.RespondError(c, rejectErr)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: "Invitation rejected"})
}

// SendMessage handles POST /api/v1/groups/:id/messages.
func (h *GroupHandler) SendMessage(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	var req SendMessageRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	msg, err := h.groupService.SendMessage(c.Request().Context(), userID, groupID, req.Text)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, toGroupMessageResponse(msg))
}

func toGroupMessageResponse(msg group.Message) GroupMessageResponse {
	return GroupMessageResponse{
		AuthorID: msg.AuthorID.String(),
		Text:     msg.Text,
		SentAt:   msg.SentAt,
	}
}

// ToGroupResponse converts a domain Group to GroupResponse.
func ToGroupResponse(g *group.Group) GroupResponse {
	members := make([]string, 0, len(g.Members()))
	for _, id := range g.Members() {
		members = append(members, id.String())
	}

	messages := make([]GroupMessageResponse, 0, len(g.Messages()))
	for _, msg := range g.Messages() {
		messages = append(messages, toGroupMessageResponse(msg))
	}

	return GroupResponse{
		ID:        g.ID().String(),
		Name:      g.Name(),
		Leader:    g.Leader().String(),
		Members:   members,
		Messages:  messages,
		CreatedAt: g.CreatedAt().Format(time.RFC3339),
	}
}
