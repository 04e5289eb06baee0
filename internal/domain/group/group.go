// Package group contains the group aggregate: a named group with a leader,
// a member set and a message log.
package group

import (
	"time"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// Message is a single entry in the group message log.
type Message struct {
	AuthorID uuid.UUID
	Text     string
	SentAt   time.Time
}

// Group is the group aggregate root.
type Group struct {
	id       uuid.UUID
	name     string
	leader   uuid.UUID
	members  []uuid.UUID
	messages []Message

	createdAt time.Time
	updatedAt time.Time
}

// NewGroup creates a group led by leader, who becomes its first member.
func NewGroup(name string, leader uuid.UUID) (*Group, error) {
	if name == "" || leader.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	now := time.Now().UTC()
	return &Group{
		id:        uuid.NewUUID(),
		name:      name,
		leader:    leader,
		members:   []uuid.UUID{leader},
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Snapshot carries every persisted field of a group for Reconstruct.
type Snapshot struct {
	ID        uuid.UUID
	Name      string
	Leader    uuid.UUID
	Members   []uuid.UUID
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reconstruct restores a group from storage.
func Reconstruct(snap Snapshot) *Group {
	return &Group{
		id:        snap.ID,
		name:      snap.Name,
		leader:    snap.Leader,
		members:   snap.Members,
		messages:  snap.Messages,
		createdAt: snap.CreatedAt,
		updatedAt: snap.UpdatedAt,
	}
}

// ID returns the group id.
func (g *Group) ID() uuid.UUID { return g.id }

// Name returns the unique group name.
func (g *Group) Name() string { return g.name }

// Leader returns the leader reference.
func (g *Group) Leader() uuid.UUID { return g.leader }

// Members returns the member set.
func (g *Group) Members() []uuid.UUID { return g.members }

// Messages returns the message log.
func (g *Group) Messages() []Message { return g.messages }

// CreatedAt returns the creation time.
func (g *Group) CreatedAt() time.Time { return g.createdAt }

// UpdatedAt returns the last update time.
func (g *Group) UpdatedAt() time.Time { return g.updatedAt }

// IsMember reports whether the user belongs to the group.
func (g *Group) IsMember(userID uuid.UUID) bool {
	for _, m := range g.members {
		if m == userID {
			return true
		}
	}
	return false
}

// AddMember adds a user to the member set. Adding twice is a no-op.
func (g *Group) AddMember(userID uuid.UUID) {
	if g.IsMember(userID) {
		return
	}
	g.members = append(g.members, userID)
	g.touch()
}

// AppendMessage appends a message authored by a current member.
func (g *Group) AppendMessage(authorID uuid.UUID, text string) (Message, error) {
	if !g.IsMember(authorID) {
		return Message{}, errs.ErrForbidden
	}
	if text == "" {
		return Message{}, errs.ErrInvalidInput
	}
	msg := Message{AuthorID: authorID, Text: text, SentAt: time.Now().UTC()}
	g.messages = append(g.messages, msg)
	g.touch()
	return msg, nil
}

func (g *Group) touch() {
	g.updatedAt = time.Now().UTC()
}
