package user

import (
	"context"

	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// SearchFilter restricts user listings. Empty fields match everything;
// non-empty fields are case-insensitive substring matches.
type SearchFilter struct {
	Username string
	Email    string
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
// The role field is deliberately absent: it cannot be changed through
// profile updates.
type ProfilePatch struct {
	Username    *string
	Email       *string
	Phone       *string
	Gender      *string
	Birthdate   *string
	Description *string
	Preferences []string
}

// Repository is the persistence interface for users. Collection mutations are
// targeted set operations so that each one is a single atomic document update.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// ExistsAny reports whether any user already holds one of the given
	// unique fields. Used as the combined pre-registration check.
	ExistsAny(ctx context.Context, username, email, phone string) (bool, error)
	Search(ctx context.Context, filter SearchFilter) ([]*User, error)
	Save(ctx context.Context, u *User) error

	UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*User, error)
	SetPasswordByEmail(ctx context.Context, email, passwordHash string) error
	SetStyle(ctx context.Context, id uuid.UUID, style Style) error
	SetProfilePhoto(ctx context.Context, id uuid.UUID, name string) error

	AddReservations(ctx context.Context, id uuid.UUID, eventIDs []string) ([]string, error)
	RemoveReservations(ctx context.Context, id uuid.UUID, eventIDs []string) ([]string, error)

	AddFavorite(ctx context.Context, id uuid.UUID, eventID string) error
	RemoveFavorite(ctx context.Context, id uuid.UUID, eventID string) error

	AddRating(ctx context.Context, id uuid.UUID, r Rating) error
	RemoveRating(ctx context.Context, id uuid.UUID, rateID uuid.UUID) error

	AddPicture(ctx context.Context, id uuid.UUID, p Picture) error
	RemovePicture(ctx context.Context, id uuid.UUID, pictureID string) error

	AddGroupInvitation(ctx context.Context, id uuid.UUID, groupID uuid.UUID) error
	RemoveGroupInvitation(ctx context.Context, id uuid.UUID, groupID uuid.UUID) error
	AddMembership(ctx context.Context, id uuid.UUID, groupID uuid.UUID) error

	AddFriendInvitation(ctx context.Context, id uuid.UUID, fromUserID uuid.UUID) error
	RemoveFriendInvitation(ctx context.Context, id uuid.UUID, fromUserID uuid.UUID) error
	AddFriend(ctx context.Context, id uuid.UUID, friendID uuid.UUID) error
}
