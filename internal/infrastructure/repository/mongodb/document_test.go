package mongodb

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/unbored-app/unbored/internal/domain/errs"
	eventdomain "github.com/unbored-app/unbored/internal/domain/event"
	groupdomain "github.com/unbored-app/unbored/internal/domain/group"
	userdomain "github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

func TestHandleMongoError(t *testing.T) {
	assert.NoError(t, HandleMongoError(nil, "user"))
	assert.ErrorIs(t, HandleMongoError(mongo.ErrNoDocuments, "user"), errs.ErrNotFound)

	wrapped := HandleMongoError(errors.New("network down"), "user")
	require.Error(t, wrapped)
	assert.NotErrorIs(t, wrapped, errs.ErrNotFound)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-09-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), *got)

	got, err = ParseDate("2026-09-01T18:30:00Z")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 18, got.Hour())

	got, err = ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseDate("tomorrow")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestUserDocument_RoundTrip(t *testing.T) {
	u, err := userdomain.NewUser("alice", "alice@example.com", "+33600000001", "hashed")
	require.NoError(t, err)
	u.AddReservations([]string{"123", "x"})
	u.AddFavorite("ev1")
	u.AddRating(userdomain.Rating{RateID: uuid.NewUUID(), EventID: uuid.NewUUID(), Stars: 4, Comment: "nice"})
	u.AddPicture(userdomain.Picture{PictureID: "img-1", EventID: uuid.NewUUID()})
	u.AddGroupInvitation(uuid.NewUUID())
	u.JoinGroup(uuid.NewUUID())
	u.AddFriendInvitation(uuid.NewUUID())
	u.AddFriend(uuid.NewUUID())

	doc := userToDocument(u)
	restored, err := documentToUser(&doc)
	require.NoError(t, err)

	assert.Equal(t, u.ID(), restored.ID())
	assert.Equal(t, u.Username(), restored.Username())
	assert.Equal(t, u.Role(), restored.Role())
	assert.Equal(t, u.Style(), restored.Style())
	assert.Equal(t, u.UnlockedStyle(), restored.UnlockedStyle())
	assert.Equal(t, u.Reservations(), restored.Reservations())
	assert.Equal(t, u.Favorites(), restored.Favorites())
	assert.Equal(t, u.Rates(), restored.Rates())
	assert.Equal(t, u.Pictures(), restored.Pictures())
	assert.Equal(t, u.Groups(), restored.Groups())
	assert.Equal(t, u.GroupInvitations(), restored.GroupInvitations())
	assert.Equal(t, u.FriendInvitations(), restored.FriendInvitations())
	assert.Equal(t, u.Friends(), restored.Friends())
}

func TestDocumentToUser_BadID(t *testing.T) {
	doc := userDocument{UserID: "not-a-uuid"}

	_, err := documentToUser(&doc)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestEventDocument_RoundTrip(t *testing.T) {
	start := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	e, err := eventdomain.NewEvent(uuid.NewUUID(), false, eventdomain.Details{
		Name:       "Concert",
		Address:    "1 rue de la Paix",
		Categories: []string{"music"},
		StartDate:  &start,
		EndDate:    &end,
		Price:      "10",
		Rewards:    []string{"badge"},
	})
	require.NoError(t, err)
	e.AddRating(eventdomain.Rating{RateID: uuid.NewUUID(), Stars: 5})
	e.AddPicture(eventdomain.Picture{PictureID: "img-1", UserID: uuid.NewUUID()})
	e.Register(uuid.NewUUID())

	doc := eventToDocument(e)
	restored, err := documentToEvent(&doc)
	require.NoError(t, err)

	assert.Equal(t, e.ID(), restored.ID())
	assert.Equal(t, e.Name(), restored.Name())
	assert.Equal(t, e.Creator(), restored.Creator())
	assert.Equal(t, e.StartDate(), restored.StartDate())
	assert.Equal(t, e.Rates(), restored.Rates())
	assert.Equal(t, e.Pictures(), restored.Pictures())
	assert.Equal(t, e.Registrants(), restored.Registrants())
	assert.False(t, restored.HasEnded())
}

func TestEventPatchToSet(t *testing.T) {
	name := "Renamed"
	start := "2026-09-01"
	set, err := eventPatchToSet(eventdomain.Patch{Name: &name, StartDate: &start})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", set["name"])
	assert.Contains(t, set, "start_date")
	assert.Contains(t, set, "updated_at")
	assert.NotContains(t, set, "address")

	bad := "whenever"
	_, err = eventPatchToSet(eventdomain.Patch{StartDate: &bad})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestGroupDocument_RoundTrip(t *testing.T) {
	leader := uuid.NewUUID()
	g, err := groupdomain.NewGroup("climbers", leader)
	require.NoError(t, err)
	g.AddMember(uuid.NewUUID())
	_, err = g.AppendMessage(leader, "hello")
	require.NoError(t, err)

	doc := groupToDocument(g)
	restored, err := documentToGroup(&doc)
	require.NoError(t, err)

	assert.Equal(t, g.ID(), restored.ID())
	assert.Equal(t, g.Leader(), restored.Leader())
	assert.Equal(t, g.Members(), restored.Members())
	assert.Equal(t, g.Messages(), restored.Messages())
}
