package httphandler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/event"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/httpserver"
)

// Rating bounds.
const (
	minStars = 1
	maxStars = 5
)

// EventService defines the interface for catalog operations.
// Declared on the consumer side per project guidelines.
type EventService interface {
	Create(ctx context.Context, creator uuid.UUID, private bool, details event.Details) (*event.Event, error)
	List(ctx context.Context, viewer uuid.UUID) ([]*event.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*event.Event, error)
	Edit(ctx context.Context, actor uuid.UUID, id uuid.UUID, patch event.Patch) (*event.Event, error)
	Delete(ctx context.Context, actor uuid.UUID, id uuid.UUID) error
	Rate(ctx context.Context, author uuid.UUID, id uuid.UUID, stars int, comment string) (event.Rating, error)
	Unrate(ctx context.Context, author uuid.UUID, rateID uuid.UUID) error
	AddFavorite(ctx context.Context, userID, eventID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, eventID uuid.UUID) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]*event.Event, error)
	CheckIn(ctx context.Context, userID, eventID uuid.UUID) error
	Reserve(ctx context.Context, userID uuid.UUID, eventIDs []string) ([]string, error)
	Unreserve(ctx context.Context, userID uuid.UUID, eventIDs []string) ([]string, error)
	ListReservations(ctx context.Context, userID uuid.UUID) ([]string, error)
	UploadPicture(
		ctx context.Context,
		userID uuid.UUID,
		eventID uuid.UUID,
		filename string,
		r io.Reader,
		size int64,
		contentType string,
	) (string, error)
}

// CreateEventRequest represents an event creation request. Dates are RFC 3339.
type CreateEventRequest struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
	StartDate   *string  `json:"start_date"`
	EndDate     *string  `json:"end_date"`
	Price       string   `json:"price"`
	Age         string   `json:"age"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	Rewards     []string `json:"rewards"`
}

// UpdateEventRequest represents a partial event update.
type UpdateEventRequest struct {
	Name        *string  `json:"name"`
	Address     *string  `json:"address"`
	Description *string  `json:"description"`
	Categories  []string `json:"categories"`
	StartDate   *string  `json:"start_date"`
	EndDate     *string  `json:"end_date"`
	Price       *string  `json:"price"`
	Age         *string  `json:"age"`
	Phone       *string  `json:"phone"`
	Email       *string  `json:"email"`
	Rewards     []string `json:"rewards"`
	Ended       *bool    `json:"ended"`
}

// RateEventRequest represents a rating request.
type RateEventRequest struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

// ReservationsRequest carries event ids to add to or remove from the
// caller's reservation list.
type ReservationsRequest struct {
	Events []string `json:"events"`
}

// ReservationsResponse carries the resulting reservation list.
type ReservationsResponse struct {
	Reservations []string `json:"reservations"`
}

// RatingResponse represents a rating in API responses.
type RatingResponse struct {
	RateID  string `json:"rate_id"`
	Stars   int    `json:"stars"`
	Comment string `json:"comment,omitempty"`
}

// EventPictureResponse represents a picture reference in API responses.
type EventPictureResponse struct {
	PictureID string `json:"picture_id"`
	UserID    string `json:"user_id"`
}

// EventResponse represents an event in API responses.
type EventResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Address     string                 `json:"address,omitempty"`
	Description string                 `json:"description,omitempty"`
	Categories  []string               `json:"categories"`
	StartDate   *time.Time             `json:"start_date,omitempty"`
	EndDate     *time.Time             `json:"end_date,omitempty"`
	Creator     string                 `json:"creator"`
	Private     bool                   `json:"private"`
	Price       string                 `json:"price,omitempty"`
	Age         string                 `json:"age,omitempty"`
	Phone       string                 `json:"phone,omitempty"`
	Email       string                 `json:"email,omitempty"`
	Rewards     []string               `json:"rewards,omitempty"`
	Rates       []RatingResponse       `json:"rates"`
	Pictures    []EventPictureResponse `json:"pictures"`
	Registrants []string               `json:"registrants"`
	Attendees   []string               `json:"attendees"`
	Ended       bool                   `json:"ended"`
	CreatedAt   string                 `json:"created_at"`
}

// EventHandler handles catalog HTTP requests.
type EventHandler struct {
	eventService EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// RegisterRoutes registers event routes with the router.
func (h *EventHandler) RegisterRoutes(r *httpserver.Router) {
	r.Auth().GET("/events", h.List)
	r.Auth().GET("/events/favorites", h.ListFavorites)
	r.Auth().GET("/events/reservations", h.ListReservations)
	r.Auth().GET("/events/:id", h.Get)
	r.Auth().POST("/events", h.CreatePublic)
	r.Auth().POST("/events/private", h.CreatePrivate)
	r.Auth().PATCH("/events/:id", h.Update)
	r.Auth().DELETE("/events/:id", h.Delete)
	r.Auth().POST("/events/:id/rate", h.Rate)
	r.Auth().DELETE("/events/rates/:rateId", h.Unrate)
	r.Auth().POST("/events/:id/pictures", h.UploadPicture)
	r.Auth().POST("/events/:id/checkin", h.CheckIn)
	r.Auth().POST("/events/:id/favorite", h.AddFavorite)
	r.Auth().DELETE("/events/:id/favorite", h.RemoveFavorite)
	r.Auth().POST("/events/reservations", h.Reserve)
	r.Auth().DELETE("/events/reservations", h.Unreserve)
}

// List handles GET /api/v1/events. Public events plus the caller's private
// ones.
func (h *EventHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	events, err := h.eventService.List(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, toEventResponses(events))
}

// Get handles GET /api/v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return httpserver.RespondError(c, err)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	e, err := h.eventService.Get(c.Request().Context(), id)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToEventResponse(e))
}

// CreatePublic handles POST /api/v1/events.
func (h *EventHandler) CreatePublic(c echo.Context) error {
	return h.create(c, false)
}

// CreatePrivate handles POST /api/v1/events/private.
func (h *EventHandler) CreatePrivate(c echo.Context) error {
	return h.create(c, true)
}

func (h *EventHandler) create(c echo.Context, private bool) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	var req CreateEventRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return httpserver.RespondError(c, errs.ErrInvalidInput)
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return httpserver.RespondError(c, errs.ErrInvalidInput)
	}

	e, err := h.eventService.Create(c.Request().Context(), userID, private, event.Details{
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
		Categories:  req.Categories,
		StartDate:   startDate,
		EndDate:     endDate,
		Price:       req.Price,
		Age:         req.Age,
		Phone:       req.Phone,
		Email:       req.Email,
		Rewards:     req.Rewards,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, ToEventResponse(e))
}

// Update handles PATCH /api/v1/events/:id.
func (h *EventHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	var req UpdateEventRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	e, err := h.eventService.Edit(c.Request().Context(), userID, id, event.Patch{
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
		Categories:  req.Categories,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Price:       req.Price,
		Age:         req.Age,
		Phone:       req.Phone,
		Email:       req.Email,
		Rewards:     req.Rewards,
		Ended:       req.Ended,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToEventResponse(e))
}

// Delete handles DELETE /api/v1/events/:id.
func (h *EventHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if delErr := h.eventService.Delete(c.Request().Context(), userID, id); delErr != nil {
		return httpserver.RespondError(c, delErr)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: "Event deleted"})
}

// Rate handles POST /api/v1/events/:id/rate.
func (h *EventHandler) Rate(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	var req RateEventRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}
	if req.Stars < minStars || req.Stars > maxStars {
		return httpserver.RespondError(c, errs.ErrInvalidInput)
	}

	rating, err := h.eventService.Rate(c.Request().Context(), userID, id, req.Stars, req.Comment)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, RatingResponse{
		RateID:  rating.RateID.String(),
		Stars:   rating.Stars,
		Comment: rating.Comment,
	})
}

// Unrate handles DELETE /api/v1/events/rates/:rateId.
func (h *EventHandler) Unrate(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	rateID, err := parseIDParam(c, "rateId")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if unrateErr := h.eventService.Unrate(c.Request().Context(), userID, rateID); unrateErr != nil {
		return httpserver.RespondError(c, unrateErr)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: "Rating removed"})
}

// UploadPicture handles POST /api/v1/events/:id/pictures.
func (h *EventHandler) UploadPicture(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	id, err := parseIDParam(c, "id")
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

	key, err := h.eventService.UploadPicture(
		c.Request().Context(),
		userID,
		id,
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

// CheckIn handles POST /api/v1/events/:id/checkin.
func (h *EventHandler) CheckIn(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if checkErr := h.eventService.CheckIn(c.Request().Context(), userID, id); checkErr != nil {
		return httpserver.RespondError(c, checkErr)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: "Checked in"})
}

// AddFavorite handles POST /api/v1/events/:id/favorite.
func (h *EventHandler) AddFavorite(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if favErr := h.eventService.AddFavorite(c.Request().Context(), userID, id); favErr != nil {
		return httpserver.RespondError(c, favErr)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: "Added to favorites"})
}

// RemoveFavorite handles DELETE /api/v1/events/:id/favorite.
func (h *EventHandler) RemoveFavorite(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if favErr := h.eventService.RemoveFavorite(c.Request().Context(), userID, id); favErr != nil {
		return httpserver.RespondError(c, favErr)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: "Removed from favorites"})
}

// ListFavorites handles GET /api/v1/events/favorites.
func (h *EventHandler) ListFavorites(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	events, err := h.eventService.ListFavorites(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, toEventResponses(events))
}

// Reserve handles POST /api/v1/events/reservations.
func (h *EventHandler) Reserve(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	var req ReservationsRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	reservations, err := h.eventService.Reserve(c.Request().Context(), userID, req.Events)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ReservationsResponse{Reservations: reservations})
}

// Unreserve handles DELETE /api/v1/events/reservations.
func (h *EventHandler) Unreserve(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	var req ReservationsRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	reservations, err := h.eventService.Unreserve(c.Request().Context(), userID, req.Events)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ReservationsResponse{Reservations: reservations})
}

// ListReservations handles GET /api/v1/events/reservations.
func (h *EventHandler) ListReservations(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	reservations, err := h.eventService.ListReservations(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ReservationsResponse{Reservations: reservations})
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func toEventResponses(events []*event.Event) []EventResponse {
	responses := make([]EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, ToEventResponse(e))
	}
	return responses
}

// ToEventResponse converts a domain Event to EventResponse.
func ToEventResponse(e *event.Event) EventResponse {
	rates := make([]RatingResponse, 0, len(e.Rates()))
	for _, r := range e.Rates() {
		rates = append(rates, RatingResponse{
			RateID:  r.RateID.String(),
			Stars:   r.Stars,
			Comment: r.Comment,
		})
	}

	pictures := make([]EventPictureResponse, 0, len(e.Pictures()))
	for _, p := range e.Pictures() {
		pictures = append(pictures, EventPictureResponse{
			PictureID: p.PictureID,
			UserID:    p.UserID.String(),
		})
	}

	registrants := make([]string, 0, len(e.Registrants()))
	for _, id := range e.Registrants() {
		registrants = append(registrants, id.String())
	}

	attendees := make([]string, 0, len(e.Attendees()))
	for _, id := range e.Attendees() {
		attendees = append(attendees, id.String())
	}

	return EventResponse{
		ID:          e.ID().String(),
		Name:        e.Name(),
		Address:     e.Address(),
		Description: e.Description(),
		Categories:  e.Categories(),
		StartDate:   e.StartDate(),
		EndDate:     e.EndDate(),
		Creator:     e.Creator().String(),
		Private:     e.IsPrivate(),
		Price:       e.Price(),
		Age:         e.Age(),
		Phone:       e.Phone(),
		Email:       e.Email(),
		Rewards:     e.Rewards(),
		Rates:       rates,
		Pictures:    pictures,
		Registrants: registrants,
		Attendees:   attendees,
		Ended:       e.HasEnded(),
		CreatedAt:   e.CreatedAt().Format(time.RFC3339),
	}
}
