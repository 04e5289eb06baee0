package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/event"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// Transactor runs a function inside a single storage transaction so that
// multi-document sequences commit or roll back as one unit.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventServiceRepository defines the catalog data access the event service
// needs. Declared on the consumer side per project guidelines.
type EventServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*event.Event, error)
	ListVisible(ctx context.Context, viewer uuid.UUID) ([]*event.Event, error)
	PublicNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
	Save(ctx context.Context, e *event.Event) error
	Update(ctx context.Context, id uuid.UUID, patch event.Patch) (*event.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddRating(ctx context.Context, id uuid.UUID, r event.Rating) (*event.Event, error)
	RemoveRating(ctx context.Context, id uuid.UUID, rateID uuid.UUID) error
	AddPicture(ctx context.Context, id uuid.UUID, p event.Picture) error
	AddRegistrant(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	AddAttendee(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

// EventServiceUserRepository defines the user data access the event service
// needs. Declared on the consumer side per project guidelines.
type EventServiceUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	AddReservations(ctx context.Context, id uuid.UUID, eventIDs []string) ([]string, error)
	RemoveReservations(ctx context.Context, id uuid.UUID, eventIDs []string) ([]string, error)
	AddFavorite(ctx context.Context, id uuid.UUID, eventID string) error
	RemoveFavorite(ctx context.Context, id uuid.UUID, eventID string) error
	AddRating(ctx context.Context, id uuid.UUID, r user.Rating) error
	RemoveRating(ctx context.Context, id uuid.UUID, rateID uuid.UUID) error
	AddPicture(ctx context.Context, id uuid.UUID, p user.Picture) error
	RemovePicture(ctx context.Context, id uuid.UUID, pictureID string) error
}

// EventServicePictureStore stores uploaded event pictures.
// Declared on the consumer side per project guidelines.
type EventServicePictureStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// EventService implements the events catalog: creation, edit, delete with
// cascade, ratings, favorites, reservations, check-in and picture upload.
type EventService struct {
	events     EventServiceRepository
	users      EventServiceUserRepository
	pictures   EventServicePictureStore
	transactor Transactor
	logger     *slog.Logger
}

// EventServiceConfig contains dependencies for EventService.
type EventServiceConfig struct {
	Events     EventServiceRepository
	Users      EventServiceUserRepository
	Pictures   EventServicePictureStore
	Transactor Transactor
	Logger     *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(cfg EventServiceConfig) *EventService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &EventService{
		events:     cfg.Events,
		users:      cfg.Users,
		pictures:   cfg.Pictures,
		transactor: cfg.Transactor,
		logger:     logger,
	}
}

// Create creates an event owned by the creator. A public event whose name is
// already taken by another public event is rejected; private events never
// participate in the name check.
func (s *EventService) Create(
	ctx context.Context,
	creator uuid.UUID,
	private bool,
	details event.Details,
) (*event.Event, error) {
	if !private {
		taken, err := s.events.PublicNameExists(ctx, details.Name, uuid.UUID(""))
		if err != nil {
			return nil, fmt.Errorf("failed to check event name: %w", err)
		}
		if taken {
			return nil, errs.ErrAlreadyExists
		}
	}

	e, err := event.NewEvent(creator, private, details)
	if err != nil {
		return nil, err
	}

	if saveErr := s.events.Save(ctx, e); saveErr != nil {
		return nil, fmt.Errorf("failed to save event: %w", saveErr)
	}

	s.logger.InfoContext(ctx, "event created",
		slog.String("event_id", e.ID().String()),
		slog.String("creator", creator.String()),
		slog.Bool("private", private),
	)

	return e, nil
}

// List returns all public events plus the viewer's private events.
func (s *EventService) List(ctx context.Context, viewer uuid.UUID) ([]*event.Event, error) {
	return s.events.ListVisible(ctx, viewer)
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	return s.events.FindByID(ctx, id)
}

// Edit applies a partial update. Only the creator may edit; a name change on
// a public event must not collide with another public event.
func (s *EventService) Edit(
	ctx context.Context,
	actor uuid.UUID,
	id uuid.UUID,
	patch event.Patch,
) (*event.Event, error) {
	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.IsCreator(actor) {
		return nil, errs.ErrForbidden
	}

	if patch.Name != nil && !e.IsPrivate() {
		taken, checkErr := s.events.PublicNameExists(ctx, *patch.Name, id)
		if checkErr != nil {
			return nil, fmt.Errorf("failed to check event name: %w", checkErr)
		}
		if taken {
			return nil, errs.ErrAlreadyExists
		}
	}

	updated, err := s.events.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "event updated",
		slog.String("event_id", id.String()),
	)

	return updated, nil
}

// Delete removes an event. Only the creator may delete; the cascade removes
// every picture reference from its uploader and the underlying files.
func (s *EventService) Delete(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !e.IsCreator(actor) {
		return errs.ErrForbidden
	}

	pictures := e.Pictures()

	txErr := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		for _, p := range pictures {
			if rmErr := s.users.RemovePicture(txCtx, p.UserID, p.PictureID); rmErr != nil {
				return fmt.Errorf("failed to remove picture mirror: %w", rmErr)
			}
		}
		return s.events.Delete(txCtx, id)
	})
	if txErr != nil {
		return txErr
	}

	// Files are removed after the records commit. A leftover file is
	// harmless; a dangling reference is not.
	for _, p := range pictures {
		if rmErr := s.pictures.Delete(ctx, p.PictureID); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to delete picture file",
				slog.String("picture", p.PictureID),
				slog.String("error", rmErr.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "event deleted",
		slog.String("event_id", id.String()),
		slog.Int("pictures_removed", len(pictures)),
	)

	return nil
}

// Rate appends a rating to the event and a mirrored entry to the author.
func (s *EventService) Rate(
	ctx context.Context,
	author uuid.UUID,
	id uuid.UUID,
	stars int,
	comment string,
) (event.Rating, error) {
	rating := event.Rating{
		RateID:  uuid.NewUUID(),
		Stars:   stars,
		Comment: comment,
	}

	txErr := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, addErr := s.events.AddRating(txCtx, id, rating); addErr != nil {
			return addErr
		}
		return s.users.AddRating(txCtx, author, user.Rating{
			RateID:  rating.RateID,
			EventID: id,
			Stars:   stars,
			Comment: comment,
		})
	})
	if txErr != nil {
		return event.Rating{}, txErr
	}

	s.logger.InfoContext(ctx, "event rated",
		slog.String("event_id", id.String()),
		slog.String("rate_id", rating.RateID.String()),
	)

	return rating, nil
}

// Unrate removes a rating from both the author and the owning event. The
// event is located through the author's mirrored record.
func (s *EventService) Unrate(ctx context.Context, author uuid.UUID, rateID uuid.UUID) error {
	u, err := s.users.FindByID(ctx, author)
	if err != nil {
		return err
	}

	mirror, ok := u.FindRating(rateID)
	if !ok {
		return errs.ErrNotFound
	}

	txErr := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if rmErr := s.events.RemoveRating(txCtx, mirror.EventID, rateID); rmErr != nil {
			return rmErr
		}
		return s.users.RemoveRating(txCtx, author, rateID)
	})
	if txErr != nil {
		return txErr
	}

	s.logger.InfoContext(ctx, "rating removed",
		slog.String("event_id", mirror.EventID.String()),
		slog.String("rate_id", rateID.String()),
	)

	return nil
}

// AddFavorite adds an existing event to the user's favorites set.
func (s *EventService) AddFavorite(ctx context.Context, userID, eventID uuid.UUID) error {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return err
	}
	return s.users.AddFavorite(ctx, userID, eventID.String())
}

// RemoveFavorite removes an event from the user's favorites set.
func (s *EventService) RemoveFavorite(ctx context.Context, userID, eventID uuid.UUID) error {
	return s.users.RemoveFavorite(ctx, userID, eventID.String())
}

// ListFavorites resolves the user's favorite event ids to events. References
// to since-deleted events are skipped.
func (s *EventService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]*event.Event, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	favorites := make([]*event.Event, 0, len(u.Favorites()))
	for _, raw := range u.Favorites() {
		id, parseErr := uuid.ParseUUID(raw)
		if parseErr != nil {
			continue
		}
		e, findErr := s.events.FindByID(ctx, id)
		if findErr != nil {
			if errors.Is(findErr, errs.ErrNotFound) {
				continue
			}
			return nil, findErr
		}
		favorites = append(favorites, e)
	}

	return favorites, nil
}

// CheckIn moves a registrant into the event's attendee set.
func (s *EventService) CheckIn(ctx context.Context, userID, eventID uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return err
	}

	if checkErr := e.CheckIn(userID); checkErr != nil {
		return checkErr
	}

	if addErr := s.events.AddAttendee(ctx, eventID, userID); addErr != nil {
		return addErr
	}

	s.logger.InfoContext(ctx, "user checked in",
		slog.String("event_id", eventID.String()),
		slog.String("user_id", userID.String()),
	)

	return nil
}

// Reserve unions the given event ids into the user's reservation list and
// registers the user on every referenced event that still exists. The
// resulting reservation list is returned.
func (s *EventService) Reserve(ctx context.Context, userID uuid.UUID, eventIDs []string) ([]string, error) {
	reservations, err := s.users.AddReservations(ctx, userID, eventIDs)
	if err != nil {
		return nil, err
	}

	for _, raw := range eventIDs {
		id, parseErr := uuid.ParseUUID(raw)
		if parseErr != nil {
			continue
		}
		if regErr := s.events.AddRegistrant(ctx, id, userID); regErr != nil && !errors.Is(regErr, errs.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to register reservation on event",
				slog.String("event_id", raw),
				slog.String("error", regErr.Error()),
			)
		}
	}

	return reservations, nil
}

// Unreserve removes every occurrence of the given event ids from the user's
// reservation list and returns what remains.
func (s *EventService) Unreserve(ctx context.Context, userID uuid.UUID, eventIDs []string) ([]string, error) {
	return s.users.RemoveReservations(ctx, userID, eventIDs)
}

// ListReservations returns the user's ordered reservation list.
func (s *EventService) ListReservations(ctx context.Context, userID uuid.UUID) ([]string, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Reservations(), nil
}

// UploadPicture stores an uploaded file and appends mirrored references to
// the event and the uploader.
func (s *EventService) UploadPicture(
	ctx context.Context,
	userID uuid.UUID,
	eventID uuid.UUID,
	filename string,
	r io.Reader,
	size int64,
	contentType string,
) (string, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return "", err
	}

	key := generatePictureKey(filename)
	if putErr := s.pictures.Put(ctx, key, r, size, contentType); putErr != nil {
		return "", fmt.Errorf("failed to store picture: %w", putErr)
	}

	txErr := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if addErr := s.events.AddPicture(txCtx, eventID, event.Picture{PictureID: key, UserID: userID}); addErr != nil {
			return addErr
		}
		return s.users.AddPicture(txCtx, userID, user.Picture{PictureID: key, EventID: eventID})
	})
	if txErr != nil {
		if rmErr := s.pictures.Delete(ctx, key); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to delete orphaned picture file",
				slog.String("picture", key),
				slog.String("error", rmErr.Error()),
			)
		}
		return "", txErr
	}

	s.logger.InfoContext(ctx, "event picture uploaded",
		slog.String("event_id", eventID.String()),
		slog.String("picture", key),
	)

	return key, nil
}
