// Package mongodb provides MongoDB infrastructure components including index management.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names as constants for consistency.
const (
	CollectionUsers  = "users"
	CollectionEvents = "events"
	CollectionGroups = "groups"
)

// IndexDefinition describes a MongoDB index to be created.
type IndexDefinition struct {
	Collection string
	Keys       bson.D
	Options    *options.IndexOptionsBuilder
}

// CreateAllIndexes creates all necessary indexes for the application.
// This function is idempotent - calling it multiple times is safe.
func CreateAllIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := GetAllIndexDefinitions()

	for _, idx := range indexes {
		coll := db.Collection(idx.Collection)
		model := mongo.IndexModel{
			Keys:    idx.Keys,
			Options: idx.Options,
		}

		_, err := coll.Indexes().CreateOne(ctx, model)
		if err != nil {
			return fmt.Errorf("failed to create index on collection %s: %w", idx.Collection, err)
		}
	}

	return nil
}

// GetAllIndexDefinitions returns all index definitions for all collections.
func GetAllIndexDefinitions() []IndexDefinition {
	var indexes []IndexDefinition

	indexes = append(indexes, GetUserIndexes()...)
	indexes = append(indexes, GetEventIndexes()...)
	indexes = append(indexes, GetGroupIndexes()...)

	return indexes
}

// GetUserIndexes returns index definitions for the users collection.
func GetUserIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// Primary key - unique user ID
			Collection: CollectionUsers,
			Keys:       bson.D{{Key: "user_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_users_id_unique"),
		},
		{
			// Unique index for username
			Collection: CollectionUsers,
			Keys:       bson.D{{Key: "username", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_users_username_unique"),
		},
		{
			// Unique index for email
			Collection: CollectionUsers,
			Keys:       bson.D{{Key: "email", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_users_email_unique"),
		},
		{
			// Unique sparse index for phone (not all users provide one)
			Collection: CollectionUsers,
			Keys:       bson.D{{Key: "phone", Value: 1}},
			Options:    options.Index().SetUnique(true).SetSparse(true).SetName("idx_users_phone_unique"),
		},
	}
}

// GetEventIndexes returns index definitions for the events collection.
func GetEventIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// Primary key - unique event ID
			Collection: CollectionEvents,
			Keys:       bson.D{{Key: "event_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_events_id_unique"),
		},
		{
			// Name uniqueness applies to public events only; private events may
			// reuse any name
			Collection: CollectionEvents,
			Keys:       bson.D{{Key: "name", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"private": false}).
				SetName("idx_events_public_name_unique"),
		},
		{
			// Index for visibility queries (public feed plus creator's private events)
			Collection: CollectionEvents,
			Keys:       bson.D{{Key: "private", Value: 1}, {Key: "creator", Value: 1}},
			Options:    options.Index().SetName("idx_events_visibility"),
		},
		{
			// Index for category filtering
			Collection: CollectionEvents,
			Keys:       bson.D{{Key: "categories", Value: 1}},
			Options:    options.Index().SetName("idx_events_categories"),
		},
		{
			// Index for time-based sorting
			Collection: CollectionEvents,
			Keys:       bson.D{{Key: "created_at", Value: -1}},
			Options:    options.Index().SetName("idx_events_created_at"),
		},
	}
}

// GetGroupIndexes returns index definitions for the groups collection.
func GetGroupIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// Primary key - unique group ID
			Collection: CollectionGroups,
			Keys:       bson.D{{Key: "group_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_groups_id_unique"),
		},
		{
			// Unique index for group name
			Collection: CollectionGroups,
			Keys:       bson.D{{Key: "name", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_groups_name_unique"),
		},
		{
			// Index for finding groups by member (array field)
			Collection: CollectionGroups,
			Keys:       bson.D{{Key: "members", Value: 1}},
			Options:    options.Index().SetName("idx_groups_members"),
		},
	}
}

// EnsureIndexes is an alias for CreateAllIndexes for semantic clarity.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	return CreateAllIndexes(ctx, db)
}
