package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/unbored-app/unbored/internal/domain/errs"
	groupdomain "github.com/unbored-app/unbored/internal/domain/group"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// MongoGroupRepository implements group.Repository.
type MongoGroupRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// GroupRepoOption configures MongoGroupRepository.
type GroupRepoOption func(*MongoGroupRepository)

// WithGroupRepoLogger sets the logger for the group repository.
func WithGroupRepoLogger(logger *slog.Logger) GroupRepoOption {
	return func(r *MongoGroupRepository) {
		r.logger = logger
	}
}

// NewMongoGroupRepository creates a new MongoDB group repository.
func NewMongoGroupRepository(collection *mongo.Collection, opts ...GroupRepoOption) *MongoGroupRepository {
	r := &MongoGroupRepository{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// FindByID finds a group by id.
func (r *MongoGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*groupdomain.Group, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"group_id": id.String()}
	var doc groupDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.ErrorContext(ctx, "failed to find group by ID",
				slog.String("group_id", id.String()),
				slog.String("error", err.Error()),
			)
		}
		return nil, HandleMongoError(err, "group")
	}

	return documentToGroup(&doc)
}

// Save upserts the full group document.
func (r *MongoGroupRepository) Save(ctx context.Context, g *groupdomain.Group) error {
	if g == nil || g.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	doc := groupToDocument(g)
	filter := bson.M{"group_id": g.ID().String()}
	update := bson.M{"$set": doc}

	_, err := r.collection.UpdateOne(ctx, filter, update, UpsertOptions())
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to save group",
			slog.String("group_id", g.ID().String()),
			slog.String("error", err.Error()),
		)
	}
	return HandleMongoError(err, "group")
}

// AddMember adds a user to the member set. Adding twice is a no-op.
func (r *MongoGroupRepository) AddMember(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if id.IsZero() || userID.IsZero() {
		return errs.ErrInvalidInput
	}

	filter := bson.M{"group_id": id.String()}
	update := bson.M{
		"$addToSet": bson.M{"members": userID.String()},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return HandleMongoError(err, "group")
	}
	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// AppendMessage appends a message to the group log.
func (r *MongoGroupRepository) AppendMessage(ctx context.Context, id uuid.UUID, msg groupdomain.Message) error {
	if id.IsZero() {
		return errs.ErrInvalidInput
	}

	filter := bson.M{"group_id": id.String()}
	update := bson.M{
		"$push": bson.M{"messages": messageToDocument(msg)},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return HandleMongoError(err, "group")
	}
	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// groupDocument is the MongoDB representation of a group.
type groupDocument struct {
	GroupID  string            `bson:"group_id"`
	Name     string            `bson:"name"`
	Leader   string            `bson:"leader"`
	Members  []string          `bson:"members"`
	Messages []messageDocument `bson:"messages,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type messageDocument struct {
	AuthorID string    `bson:"author_id"`
	Text     string    `bson:"text"`
	SentAt   time.Time `bson:"sent_at"`
}

func messageToDocument(m groupdomain.Message) messageDocument {
	return messageDocument{AuthorID: m.AuthorID.String(), Text: m.Text, SentAt: m.SentAt}
}

// groupToDocument converts a domain group into its document form.
func groupToDocument(g *groupdomain.Group) groupDocument {
	doc := groupDocument{
		GroupID:   g.ID().String(),
		Name:      g.Name(),
		Leader:    g.Leader().String(),
		Members:   idsToStrings(g.Members()),
		CreatedAt: g.CreatedAt(),
		UpdatedAt: g.UpdatedAt(),
	}

	for _, m := range g.Messages() {
		doc.Messages = append(doc.Messages, messageToDocument(m))
	}

	return doc
}

// documentToGroup converts a document back into a domain group.
func documentToGroup(doc *groupDocument) (*groupdomain.Group, error) {
	if doc == nil {
		return nil, errs.ErrInvalidInput
	}

	id, err := uuid.ParseUUID(doc.GroupID)
	if err != nil {
		return nil, errs.ErrInvalidInput
	}
	leader, err := uuid.ParseUUID(doc.Leader)
	if err != nil {
		return nil, errs.ErrInvalidInput
	}
	members, err := stringsToIDs(doc.Members)
	if err != nil {
		return nil, err
	}

	snap := groupdomain.Snapshot{
		ID:        id,
		Name:      doc.Name,
		Leader:    leader,
		Members:   members,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}

	for _, m := range doc.Messages {
		authorID, merr := uuid.ParseUUID(m.AuthorID)
		if merr != nil {
			return nil, errs.ErrInvalidInput
		}
		snap.Messages = append(snap.Messages, groupdomain.Message{AuthorID: authorID, Text: m.Text, SentAt: m.SentAt})
	}

	return groupdomain.Reconstruct(snap), nil
}
