// Package mongodb implements the domain repositories on top of MongoDB.
package mongodb

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/unbored-app/unbored/internal/domain/errs"
)

// Collection names.
const (
	UsersCollection  = "users"
	EventsCollection = "events"
	GroupsCollection = "groups"
)

// HandleMongoError converts a MongoDB error into a domain error.
// Returns:
//   - nil if err == nil
//   - errs.ErrNotFound when no document matched
//   - errs.ErrAlreadyExists when a unique constraint was violated
//   - a wrapped error otherwise
func HandleMongoError(err error, resourceType string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrAlreadyExists
	}

	return fmt.Errorf("failed to operate on %s: %w", resourceType, err)
}

// UpsertOptions returns the standard options for upsert writes.
func UpsertOptions() *options.UpdateOneOptionsBuilder {
	return options.UpdateOne().SetUpsert(true)
}

// ReturnUpdatedOptions returns FindOneAndUpdate options that yield the
// post-update document.
func ReturnUpdatedOptions() *options.FindOneAndUpdateOptionsBuilder {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// StringPtr returns a pointer to s, or nil when s is empty. Useful for
// optional string fields in documents.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Accepted layouts for caller-supplied date strings.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate parses a caller-supplied date string. An empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // empty input clears the field
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid date %q", errs.ErrInvalidInput, s)
}
