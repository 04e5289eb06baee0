package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/unbored-app/unbored/internal/domain/errs"
	userdomain "github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// MongoUserRepository implements user.Repository.
type MongoUserRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// UserRepoOption configures MongoUserRepository.
type UserRepoOption func(*MongoUserRepository)

// WithUserRepoLogger sets the logger for the user repository.
func WithUserRepoLogger(logger *slog.Logger) UserRepoOption {
	return func(r *MongoUserRepository) {
		r.logger = logger
	}
}

// NewMongoUserRepository creates a new MongoDB user repository.
func NewMongoUserRepository(collection *mongo.Collection, opts ...UserRepoOption) *MongoUserRepository {
	r := &MongoUserRepository{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// FindByID finds a user by id.
func (r *MongoUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userdomain.User, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"user_id": id.String()}
	var doc userDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.ErrorContext(ctx, "failed to find user by ID",
				slog.String("user_id", id.String()),
				slog.String("error", err.Error()),
			)
		}
		return nil, HandleMongoError(err, "user")
	}

	return documentToUser(&doc)
}

// FindByEmail finds a user by email.
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	if email == "" {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"email": email}
	var doc userDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		return nil, HandleMongoError(err, "user")
	}

	return documentToUser(&doc)
}

// ExistsAny reports whether any user already holds one of the given unique
// fields. Empty fields are skipped.
func (r *MongoUserRepository) ExistsAny(ctx context.Context, username, email, phone string) (bool, error) {
	var or []bson.M
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if phone != "" {
		or = append(or, bson.M{"phone": phone})
	}
	if len(or) == 0 {
		return false, nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"$or": or}, options.Count().SetLimit(1))
	if err != nil {
		return false, HandleMongoError(err, "user")
	}

	return count > 0, nil
}

// Search returns users matching the filter. Non-empty filter fields become
// case-insensitive substring matches.
func (r *MongoUserRepository) Search(ctx context.Context, filter userdomain.SearchFilter) ([]*userdomain.User, error) {
	query := bson.M{}
	if filter.Username != "" {
		query["username"] = bson.M{"$regex": regexp.QuoteMeta(filter.Username), "$options": "i"}
	}
	if filter.Email != "" {
		query["email"] = bson.M{"$regex": regexp.QuoteMeta(filter.Email), "$options": "i"}
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, HandleMongoError(err, "users")
	}
	defer cursor.Close(ctx)

	var users []*userdomain.User
	for cursor.Next(ctx) {
		var doc userDocument
		if decodeErr := cursor.Decode(&doc); decodeErr != nil {
			return nil, HandleMongoError(decodeErr, "users")
		}
		u, convErr := documentToUser(&doc)
		if convErr != nil {
			return nil, convErr
		}
		users = append(users, u)
	}
	if cursorErr := cursor.Err(); cursorErr != nil {
		return nil, HandleMongoError(cursorErr, "users")
	}

	return users, nil
}

// Save upserts the full user document.
func (r *MongoUserRepository) Save(ctx context.Context, u *userdomain.User) error {
	if u == nil || u.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	doc := userToDocument(u)
	filter := bson.M{"user_id": u.ID().String()}
	update := bson.M{"$set": doc}

	_, err := r.collection.UpdateOne(ctx, filter, update, UpsertOptions())
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to save user",
			slog.String("user_id", u.ID().String()),
			slog.String("error", err.Error()),
		)
	}
	return HandleMongoError(err, "user")
}

// UpdateProfile applies a partial profile update and returns the updated user.
func (r *MongoUserRepository) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	patch userdomain.ProfilePatch,
) (*userdomain.User, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Gender != nil {
		set["gender"] = *patch.Gender
	}
	if patch.Birthdate != nil {
		birthdate, err := ParseDate(*patch.Birthdate)
		if err != nil {
			return nil, err
		}
		set["birthdate"] = birthdate
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Preferences != nil {
		set["preferences"] = patch.Preferences
	}

	filter := bson.M{"user_id": id.String()}
	var doc userDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, ReturnUpdatedOptions()).Decode(&doc)
	if err != nil {
		return nil, HandleMongoError(err, "user")
	}

	return documentToUser(&doc)
}

// SetPasswordByEmail replaces the stored password hash of the user with the
// given email.
func (r *MongoUserRepository) SetPasswordByEmail(ctx context.Context, email, passwordHash string) error {
	if email == "" || passwordHash == "" {
		return errs.ErrInvalidInput
	}

	filter := bson.M{"email": email}
	update := bson.M{"$set": bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return HandleMongoError(err, "user")
	}
	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetStyle replaces the selected avatar style.
func (r *MongoUserRepository) SetStyle(ctx context.Context, id uuid.UUID, style userdomain.Style) error {
	update := bson.M{"$set": bson.M{"style": styleToDocument(style), "updated_at": time.Now().UTC()}}
	return r.updateByID(ctx, id, update)
}

// SetProfilePhoto replaces the profile photo reference.
func (r *MongoUserRepository) SetProfilePhoto(ctx context.Context, id uuid.UUID, name string) error {
	update := bson.M{"$set": bson.M{"profile_photo": name, "updated_at": time.Now().UTC()}}
	return r.updateByID(ctx, id, update)
}

// AddReservations unions the event ids into the reservation list and returns
// the resulting list.
func (r *MongoUserRepository) AddReservations(ctx context.Context, id uuid.UUID, eventIDs []string) ([]string, error) {
	update := bson.M{
		"$addToSet": bson.M{"reservations": bson.M{"$each": eventIDs}},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateReservations(ctx, id, update)
}

// RemoveReservations deletes the event ids from the reservation list and
// returns the resulting list.
func (r *MongoUserRepository) RemoveReservations(ctx context.Context, id uuid.UUID, eventIDs []string) ([]string, error) {
	update := bson.M{
		"$pull": bson.M{"reservations": bson.M{"$in": eventIDs}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateReservations(ctx, id, update)
}

func (r *MongoUserRepository) updateReservations(ctx context.Context, id uuid.UUID, update bson.M) ([]string, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"user_id": id.String()}
	var doc userDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update, ReturnUpdatedOptions()).Decode(&doc)
	if err != nil {
		return nil, HandleMongoError(err, "user")
	}
	return doc.Reservations, nil
}

// AddFavorite adds an event id to the favorites set.
func (r *MongoUserRepository) AddFavorite(ctx context.Context, id uuid.UUID, eventID string) error {
	update := bson.M{
		"$addToSet": bson.M{"favorites": eventID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// RemoveFavorite removes an event id from the favorites set.
func (r *MongoUserRepository) RemoveFavorite(ctx context.Context, id uuid.UUID, eventID string) error {
	update := bson.M{
		"$pull": bson.M{"favorites": eventID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// AddRating appends a rating mirror entry.
func (r *MongoUserRepository) AddRating(ctx context.Context, id uuid.UUID, rating userdomain.Rating) error {
	update := bson.M{
		"$push": bson.M{"rates": userRatingToDocument(rating)},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// RemoveRating drops the rating mirror with the given rate id.
func (r *MongoUserRepository) RemoveRating(ctx context.Context, id uuid.UUID, rateID uuid.UUID) error {
	update := bson.M{
		"$pull": bson.M{"rates": bson.M{"rate_id": rateID.String()}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// AddPicture appends a picture mirror entry.
func (r *MongoUserRepository) AddPicture(ctx context.Context, id uuid.UUID, p userdomain.Picture) error {
	update := bson.M{
		"$push": bson.M{"pictures": userPictureToDocument(p)},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// RemovePicture drops the picture mirror with the given picture id.
func (r *MongoUserRepository) RemovePicture(ctx context.Context, id uuid.UUID, pictureID string) error {
	update := bson.M{
		"$pull": bson.M{"pictures": bson.M{"picture_id": pictureID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// AddGroupInvitation records a pending group invitation. A duplicate
// invitation yields errs.ErrAlreadyExists.
func (r *MongoUserRepository) AddGroupInvitation(ctx context.Context, id uuid.UUID, groupID uuid.UUID) error {
	entry := bson.M{"group_id": groupID.String(), "created_at": time.Now().UTC()}
	return r.pushUnique(ctx, id, "group_invitations", "group_id", groupID.String(), entry, true)
}

// RemoveGroupInvitation drops the pending invitation for the group, if any.
func (r *MongoUserRepository) RemoveGroupInvitation(ctx context.Context, id uuid.UUID, groupID uuid.UUID) error {
	update := bson.M{
		"$pull": bson.M{"group_invitations": bson.M{"group_id": groupID.String()}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// AddMembership records a group membership. Joining twice is a no-op.
func (r *MongoUserRepository) AddMembership(ctx context.Context, id uuid.UUID, groupID uuid.UUID) error {
	entry := bson.M{"group_id": groupID.String(), "joined_at": time.Now().UTC()}
	return r.pushUnique(ctx, id, "groups", "group_id", groupID.String(), entry, false)
}

// AddFriendInvitation records a pending friend invitation. A duplicate
// invitation yields errs.ErrAlreadyExists.
func (r *MongoUserRepository) AddFriendInvitation(ctx context.Context, id uuid.UUID, fromUserID uuid.UUID) error {
	entry := bson.M{"user_id": fromUserID.String(), "created_at": time.Now().UTC()}
	return r.pushUnique(ctx, id, "friend_invitations", "user_id", fromUserID.String(), entry, true)
}

// RemoveFriendInvitation drops the pending invitation from the user, if any.
func (r *MongoUserRepository) RemoveFriendInvitation(ctx context.Context, id uuid.UUID, fromUserID uuid.UUID) error {
	update := bson.M{
		"$pull": bson.M{"friend_invitations": bson.M{"user_id": fromUserID.String()}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// AddFriend records a friend reference. Adding twice is a no-op.
func (r *MongoUserRepository) AddFriend(ctx context.Context, id uuid.UUID, friendID uuid.UUID) error {
	update := bson.M{
		"$addToSet": bson.M{"friends": friendID.String()},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update)
}

// updateByID runs a single targeted update against one user document.
func (r *MongoUserRepository) updateByID(ctx context.Context, id uuid.UUID, update bson.M) error {
	if id.IsZero() {
		return errs.ErrInvalidInput
	}

	filter := bson.M{"user_id": id.String()}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return HandleMongoError(err, "user")
	}
	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// pushUnique pushes entry onto the named array field unless an element with
// keyField == keyValue is already present. When strict is true a duplicate
// yields errs.ErrAlreadyExists, otherwise it is a no-op.
func (r *MongoUserRepository) pushUnique(
	ctx context.Context,
	id uuid.UUID,
	field, keyField, keyValue string,
	entry bson.M,
	strict bool,
) error {
	if id.IsZero() {
		return errs.ErrInvalidInput
	}

	filter := bson.M{
		"user_id":           id.String(),
		field + "." + keyField: bson.M{"$ne": keyValue},
	}
	update := bson.M{
		"$push": bson.M{field: entry},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return HandleMongoError(err, "user")
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// Either the user is missing or the entry already exists.
	exists, err := r.existsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errs.ErrNotFound
	}
	if strict {
		return errs.ErrAlreadyExists
	}
	return nil
}

func (r *MongoUserRepository) existsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": id.String()}, options.Count().SetLimit(1))
	if err != nil {
		return false, HandleMongoError(err, "user")
	}
	return count > 0, nil
}
