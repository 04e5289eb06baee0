package group

import (
	"context"

	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// Repository is the persistence interface for groups.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Group, error)
	Save(ctx context.Context, g *Group) error

	AddMember(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	AppendMessage(ctx context.Context, id uuid.UUID, msg Message) error
}
