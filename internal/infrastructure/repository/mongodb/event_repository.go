package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/unbored-app/unbored/internal/domain/errs"
	eventdomain "github.com/unbored-app/unbored/internal/domain/event"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// MongoEventRepository implements event.Repository.
type MongoEventRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// EventRepoOption configures MongoEventRepository.
type EventRepoOption func(*MongoEventRepository)

// WithEventRepoLogger sets the logger for the event repository.
func WithEventRepoLogger(logger *slog.Logger) EventRepoOption {
	return func(r *MongoEventRepository) {
		r.logger = logger
	}
}

// NewMongoEventRepository creates a new MongoDB event repository.
func NewMongoEventRepository(collection *mongo.Collection, opts ...EventRepoOption) *MongoEventRepository {
	r := &MongoEventRepository{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// FindByID finds an event by id.
func (r *MongoEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*eventdomain.Event, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"event_id": id.String()}
	var doc eventDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.ErrorContext(ctx, "failed to find event by ID",
				slog.String("event_id", id.String()),
				slog.String("error", err.Error()),
			)
		}
		return nil, HandleMongoError(err, "event")
	}

	return documentToEvent(&doc)
}

// ListVisible returns all public events plus the viewer's private events.
func (r *MongoEventRepository) ListVisible(ctx context.Context, viewer uuid.UUID) ([]*eventdomain.Event, error) {
	filter := bson.M{"$or": []bson.M{
		{"private": false},
		{"private": true, "creator": viewer.String()},
	}}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, HandleMongoError(err, "events")
	}
	defer cursor.Close(ctx)

	var events []*eventdomain.Event
	for cursor.Next(ctx) {
		var doc eventDocument
		if decodeErr := cursor.Decode(&doc); decodeErr != nil {
			return nil, HandleMongoError(decodeErr, "events")
		}
		e, convErr := documentToEvent(&doc)
		if convErr != nil {
			return nil, convErr
		}
		events = append(events, e)
	}
	if cursorErr := cursor.Err(); cursorErr != nil {
		return nil, HandleMongoError(cursorErr, "events")
	}

	return events, nil
}

// PublicNameExists reports whether a public event already holds the name.
// Private events never participate in the check.
func (r *MongoEventRepository) PublicNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	if name == "" {
		return false, errs.ErrInvalidInput
	}

	filter := bson.M{"name": name, "private": false}
	if !excludeID.IsZero() {
		filter["event_id"] = bson.M{"$ne": excludeID.String()}
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, HandleMongoError(err, "event")
	}

	return count > 0, nil
}

// Save upserts the full event document.
func (r *MongoEventRepository) Save(ctx context.Context, e *eventdomain.Event) error {
	if e == nil || e.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	doc := eventToDocument(e)
	filter := bson.M{"event_id": e.ID().String()}
	update := bson.M{"$set": doc}

	_, err := r.collection.UpdateOne(ctx, filter, update, UpsertOptions())
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to save event",
			slog.String("event_id", e.ID().String()),
			slog.String("error", err.Error()),
		)
	}
	return HandleMongoError(err, "event")
}

// Update applies a partial event update and returns the updated event.
func (r *MongoEventRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	patch eventdomain.Patch,
) (*eventdomain.Event, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	set, err := eventPatchToSet(patch)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"event_id": id.String()}
	var doc eventDocument
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, ReturnUpdatedOptions()).Decode(&doc)
	if err != nil {
		return nil, HandleMongoError(err, "event")
	}

	return documentToEvent(&doc)
}

// Delete removes an event document.
func (r *MongoEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if id.IsZero() {
		return errs.ErrInvalidInput
	}

	filter := bson.M{"event_id": id.String()}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to delete event",
			slog.String("event_id", id.String()),
			slog.String("error", err.Error()),
		)
		return HandleMongoError(err, "event")
	}
	if result.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// AddRating appends a rating and returns the updated event.
func (r *MongoEventRepository) AddRating(
	ctx context.Context,
	id uuid.UUID,
	rating eventdomain.Rating,
) (*eventdomain.Event, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"event_id": id.String()}
	update := bson.M{
		"$push": bson.M{"rates": eventRatingToDocument(rating)},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	var doc eventDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update, ReturnUpdatedOptions()).Decode(&doc)
	if err != nil {
		return nil, HandleMongoError(err, "event")
	}

	return documentToEvent(&doc)
}

// RemoveRating drops the rating with the given rate id.
func (r *MongoEventRepository) RemoveRating(ctx context.Context, id uuid.UUID, rateID uuid.UUID) error {
	update := bson.M{
		"$pull": bson.M{"rates": bson.M{"rate_id": rateID.String()}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// AddPicture appends a picture reference.
func (r *MongoEventRepository) AddPicture(ctx context.Context, id uuid.UUID, p eventdomain.Picture) error {
	update := bson.M{
		"$push": bson.M{"pictures": eventPictureToDocument(p)},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// AddRegistrant adds a user to the registrant set. Registering twice is a no-op.
func (r *MongoEventRepository) AddRegistrant(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	update := bson.M{
		"$addToSet": bson.M{"registrants": userID.String()},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// AddAttendee adds a user to the attendee set.
func (r *MongoEventRepository) AddAttendee(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	update := bson.M{
		"$addToSet": bson.M{"attendees": userID.String()},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

func (r *MongoEventRepository) updateByID(ctx context.Context, id uuid.UUID, update bson.M) error {
	if id.IsZero() {
		return errs.ErrInvalidInput
	}

	filter := bson.M{"event_id": id.String()}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return HandleMongoError(err, "event")
	}
	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// eventPatchToSet builds the $set document for a partial event update.
func eventPatchToSet(patch eventdomain.Patch) (bson.M, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Address != nil {
		set["address"] = *patch.Address
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Categories != nil {
		set["categories"] = patch.Categories
	}
	if patch.StartDate != nil {
		start, err := ParseDate(*patch.StartDate)
		if err != nil {
			return nil, err
		}
		set["start_date"] = start
	}
	if patch.EndDate != nil {
		end, err := ParseDate(*patch.EndDate)
		if err != nil {
			return nil, err
		}
		set["end_date"] = end
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Age != nil {
		set["age"] = *patch.Age
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Rewards != nil {
		set["rewards"] = patch.Rewards
	}
	if patch.Ended != nil {
		set["ended"] = *patch.Ended
	}
	return set, nil
}
