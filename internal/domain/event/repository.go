package event

import (
	"context"

	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// Patch is a partial event update. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Address     *string
	Description *string
	Categories  []string
	StartDate   *string
	EndDate     *string
	Price       *string
	Age         *string
	Phone       *string
	Email       *string
	Rewards     []string
	Ended       *bool
}

// Repository is the persistence interface for catalog events.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Event, error)
	// ListVisible returns all public events plus the viewer's private events.
	ListVisible(ctx context.Context, viewer uuid.UUID) ([]*Event, error)
	// PublicNameExists reports whether a public event already holds the name,
	// excluding the given event id (zero to exclude nothing). Private events
	// never participate in the check.
	PublicNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
	Save(ctx context.Context, e *Event) error
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Event, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddRating(ctx context.Context, id uuid.UUID, r Rating) (*Event, error)
	RemoveRating(ctx context.Context, id uuid.UUID, rateID uuid.UUID) error

	AddPicture(ctx context.Context, id uuid.UUID, p Picture) error

	AddRegistrant(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	AddAttendee(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}
