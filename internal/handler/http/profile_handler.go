package httphandler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/httpserver"
)

const maxPictureSize = 10 << 20

// ProfileService defines the interface for profile operations.
// Declared on the consumer side per project guidelines.
type ProfileService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*user.User, error)
	Search(ctx context.Context, filter user.SearchFilter) ([]*user.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch user.ProfilePatch) (*user.User, error)
	GetAvatar(ctx context.Context, id uuid.UUID) (user.Style, error)
	GetUnlockedAvatars(ctx context.Context, id uuid.UUID) (user.UnlockedStyle, error)
	ChangeAvatarStyle(ctx context.Context, id uuid.UUID, patch user.StylePatch) (user.Style, error)
	UploadProfilePicture(
		ctx context.Context,
		id uuid.UUID,
		filename string,
		r io.Reader,
		size int64,
		contentType string,
	) (string, error)
}

// UpdateProfileRequest represents a partial profile update. A role field is
// rejected outright.
type UpdateProfileRequest struct {
	Username    *string  `json:"username"`
	Email       *string  `json:"email"`
	Phone       *string  `json:"phone"`
	Gender      *string  `json:"gender"`
	Birthdate   *string  `json:"birthdate"`
	Description *string  `json:"description"`
	Preferences []string `json:"preferences"`
	Role        *string  `json:"role"`
}

// StyleRequest represents a partial avatar style update.
type StyleRequest struct {
	Head  *string `json:"head"`
	Body  *string `json:"body"`
	Pants *string `json:"pants"`
	Shoes *string `json:"shoes"`
}

// StyleResponse represents an avatar style.
type StyleResponse struct {
	Head  string `json:"head"`
	Body  string `json:"body"`
	Pants string `json:"pants"`
	Shoes string `json:"shoes"`
}

// UnlockedStyleResponse represents the unlocked avatar variants per slot.
type UnlockedStyleResponse struct {
	Head  []string `json:"head"`
	Body  []string `json:"body"`
	Pants []string `json:"pants"`
	Shoes []string `json:"shoes"`
}

// PictureResponse carries the generated name of an uploaded picture.
type PictureResponse struct {
	Picture string `json:"picture"`
}

// ProfileResponse represents a user profile in API responses. Credentials and
// internal state are never exposed.
type ProfileResponse struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	Role         string        `json:"role"`
	Gender       string        `json:"gender,omitempty"`
	Birthdate    *time.Time    `json:"birthdate,omitempty"`
	Description  string        `json:"description,omitempty"`
	Preferences  []string      `json:"preferences,omitempty"`
	ProfilePhoto string        `json:"profile_photo,omitempty"`
	Style        StyleResponse `json:"style"`
	CreatedAt    string        `json:"created_at"`
}

// ProfileHandler handles profile HTTP requests.
type ProfileHandler struct {
	profileService ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// RegisterRoutes registers profile routes with the router.
func (h *ProfileHandler) RegisterRoutes(r *httpserver.Router) {
	r.Auth().GET("/profile", h.GetSelf)
	r.Auth().GET("/profile/all", h.Search)
	r.Auth().GET("/profile/avatar", h.GetAvatar)
	r.Auth().GET("/profile/avatars", h.GetUnlockedAvatars)
	r.Auth().GET("/profile/:id", h.GetByID)
	r.Auth().PATCH("/profile", h.Update)
	r.Auth().PUT("/profile/avatar", h.ChangeAvatar)
	r.Auth().POST("/profile/picture", h.UploadPicture)
}

// GetSelf handles GET /api/v1/profile.
func (h *ProfileHandler) GetSelf(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	u, err := h.profileService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToProfileResponse(u))
}

// Search handles GET /api/v1/profile/all. Username and email query params
// narrow the listing with case-insensitive substring matches.
func (h *ProfileHandler) Search(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return httpserver.RespondError(c, err)
	}

	filter := user.SearchFilter{
		Username: c.QueryParam("username"),
		Email:    c.QueryParam("email"),
	}

	found, err := h.profileService.Search(c.Request().Context(), filter)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	profiles := make([]ProfileResponse, 0, len(found))
	for _, u := range found {
		profiles = append(profiles, ToProfileResponse(u))
	}

	return httpserver.RespondOK(c, profiles)
}

// GetByID handles GET /api/v1/profile/:id.
func (h *ProfileHandler) GetByID(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return httpserver.RespondError(c, err)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	u, err := h.profileService.GetProfile(c.Request().Context(), id)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToProfileResponse(u))
}

// Update handles PATCH /api/v1/profile. Role changes are rejected regardless
// of the caller's own role.
func (h *ProfileHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	var req UpdateProfileRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}
	if req.Role != nil {
		return httpserver.RespondError(c, errs.ErrForbidden)
	}

	u, err := h.profileService.UpdateProfile(c.Request().Context(), userID, user.ProfilePatch{
		Username:    req.Username,
		Email:       req.Email,
		Phone:       req.Phone,
		Gender:      req.Gender,
		Birthdate:   req.Birthdate,
		Description: req.Description,
		Preferences: req.Preferences,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToProfileResponse(u))
}

// GetAvatar handles GET /api/v1/profile/avatar.
func (h *ProfileHandler) GetAvatar(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	style, err := h.profileService.GetAvatar(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, toStyleResponse(style))
}

// GetUnlockedAvatars handles GET /api/v1/profile/avatars.
func (h *ProfileHandler) GetUnlockedAvatars(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	unlocked, err := h.profileService.GetUnlockedAvatars(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, UnlockedStyleResponse{
		Head:  unlocked.Head,
		Body:  unlocked.Body,
		Pants: unlocked.Pants,
		Shoes: unlocked.Shoes,
	})
}

// ChangeAvatar handles PUT /api/v1/profile/avatar. Only provided slots are
// merged; each must carry an unlocked variant.
func (h *ProfileHandler) ChangeAvatar(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	var req StyleRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	style, err := h.profileService.ChangeAvatarStyle(c.Request().Context(), userID, user.StylePatch{
		Head:  req.Head,
		Body:  req.Body,
		Pants: req.Pants,
		Shoes: req.Shoes,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, toStyleResponse(style))
}

// UploadPicture handles POST /api/v1/profile/picture.
func (h *ProfileHandler) UploadPicture(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	fileHeader, err := c.FormFile("picture")
	if err != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_REQUEST", "picture file required")
	}
	if fileHeader.Size > maxPictureSize {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_REQUEST", "picture too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	defer file.Close()

	key, err := h.profileService.UploadProfilePicture(
		c.Request().Context(),
		userID,
		fileHeader.Filename,
		file,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, PictureResponse{Picture: key})
}

func toStyleResponse(style user.Style) StyleResponse {
	return StyleResponse{
		Head:  style.Head,
		Body:  style.Body,
		Pants: style.Pants,
		Shoes: style.Shoes,
	}
}

// ToProfileResponse converts a domain User to ProfileResponse.
func ToProfileResponse(u *user.User) ProfileResponse {
	return ProfileResponse{
		ID:           u.ID().String(),
		Username:     u.Username(),
		Email:        u.Email(),
		Phone:        u.Phone(),
		Role:         string(u.Role()),
		Gender:       u.Gender(),
		Birthdate:    u.Birthdate(),
		Description:  u.Description(),
		Preferences:  u.Preferences(),
		ProfilePhoto: u.ProfilePhoto(),
		Style:        toStyleResponse(u.Style()),
		CreatedAt:    u.CreatedAt().Format(time.RFC3339),
	}
}
