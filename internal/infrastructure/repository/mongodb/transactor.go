package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Transactor runs a function inside a single MongoDB transaction so that
// multi-document sequences commit or roll back as one unit.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoTransactor implements Transactor on a MongoDB client session.
type MongoTransactor struct {
	client *mongo.Client
	logger *slog.Logger
}

// NewMongoTransactor creates a transactor bound to the given client.
func NewMongoTransactor(client *mongo.Client, logger *slog.Logger) *MongoTransactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoTransactor{client: client, logger: logger}
}

// WithinTransaction runs fn inside a transaction. Operations inside fn must
// use the context it receives so they join the session.
func (t *MongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to start MongoDB session",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		if txErr := fn(txCtx); txErr != nil {
			return nil, txErr
		}
		return nil, nil
	})
	return err
}

// NoopTransactor runs the function directly without a session. Used in tests
// and against standalone MongoDB deployments without replica sets.
type NoopTransactor struct{}

// WithinTransaction calls fn with the unmodified context.
func (NoopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
