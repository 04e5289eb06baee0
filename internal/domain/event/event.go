// Package event contains the catalog event aggregate: public and private
// events with ratings, pictures, registrants and attendees.
package event

import (
	"time"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// Rating is a rating attached to an event.
type Rating struct {
	RateID  uuid.UUID
	Stars   int
	Comment string
}

// Picture references an uploaded picture and its uploader.
type Picture struct {
	PictureID string
	UserID    uuid.UUID
}

// Event is the catalog aggregate root.
type Event struct {
	id          uuid.UUID
	name        string
	address     string
	description string
	categories  []string
	startDate   *time.Time
	endDate     *time.Time
	creator     uuid.UUID
	private     bool

	price   string
	age     string
	phone   string
	email   string
	rewards []string

	rates       []Rating
	pictures    []Picture
	registrants []uuid.UUID
	attendees   []uuid.UUID
	ended       bool

	createdAt time.Time
	updatedAt time.Time
}

// Details carries the caller-supplied fields for event creation.
type Details struct {
	Name        string
	Address     string
	Description string
	Categories  []string
	StartDate   *time.Time
	EndDate     *time.Time
	Price       string
	Age         string
	Phone       string
	Email       string
	Rewards     []string
}

// NewEvent creates an event owned by creator. The name and at least one
// category are required; when both dates are present the end must not
// precede the start.
func NewEvent(creator uuid.UUID, private bool, d Details) (*Event, error) {
	if creator.IsZero() || d.Name == "" || len(d.Categories) == 0 {
		return nil, errs.ErrInvalidInput
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		return nil, errs.ErrInvalidInput
	}

	now := time.Now().UTC()
	return &Event{
		id:          uuid.NewUUID(),
		name:        d.Name,
		address:     d.Address,
		description: d.Description,
		categories:  d.Categories,
		startDate:   d.StartDate,
		endDate:     d.EndDate,
		creator:     creator,
		private:     private,
		price:       d.Price,
		age:         d.Age,
		phone:       d.Phone,
		email:       d.Email,
		rewards:     d.Rewards,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Snapshot carries every persisted field of an event for Reconstruct.
type Snapshot struct {
	ID          uuid.UUID
	Name        string
	Address     string
	Description string
	Categories  []string
	StartDate   *time.Time
	EndDate     *time.Time
	Creator     uuid.UUID
	Private     bool
	Price       string
	Age         string
	Phone       string
	Email       string
	Rewards     []string
	Rates       []Rating
	Pictures    []Picture
	Registrants []uuid.UUID
	Attendees   []uuid.UUID
	Ended       bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reconstruct restores an event from storage.
func Reconstruct(snap Snapshot) *Event {
	return &Event{
		id:          snap.ID,
		name:        snap.Name,
		address:     snap.Address,
		description: snap.Description,
		categories:  snap.Categories,
		startDate:   snap.StartDate,
		endDate:     snap.EndDate,
		creator:     snap.Creator,
		private:     snap.Private,
		price:       snap.Price,
		age:         snap.Age,
		phone:       snap.Phone,
		email:       snap.Email,
		rewards:     snap.Rewards,
		rates:       snap.Rates,
		pictures:    snap.Pictures,
		registrants: snap.Registrants,
		attendees:   snap.Attendees,
		ended:       snap.Ended,
		createdAt:   snap.CreatedAt,
		updatedAt:   snap.UpdatedAt,
	}
}

// ID returns the event id.
func (e *Event) ID() uuid.UUID { return e.id }

// Name returns the event name.
func (e *Event) Name() string { return e.name }

// Address returns the event address.
func (e *Event) Address() string { return e.address }

// Description returns the free-text description.
func (e *Event) Description() string { return e.description }

// Categories returns the category tags.
func (e *Event) Categories() []string { return e.categories }

// StartDate returns the scheduling window start, if any.
func (e *Event) StartDate() *time.Time { return e.startDate }

// EndDate returns the scheduling window end, if any.
func (e *Event) EndDate() *time.Time { return e.endDate }

// Creator returns the owning creator reference.
func (e *Event) Creator() uuid.UUID { return e.creator }

// IsPrivate reports whether the event is creator-scoped.
func (e *Event) IsPrivate() bool { return e.private }

// Price returns the price label of a public event.
func (e *Event) Price() string { return e.price }

// Age returns the age restriction label of a public event.
func (e *Event) Age() string { return e.age }

// Phone returns the contact phone of a public event.
func (e *Event) Phone() string { return e.phone }

// Email returns the contact email of a public event.
func (e *Event) Email() string { return e.email }

// Rewards returns the reward labels of a public event.
func (e *Event) Rewards() []string { return e.rewards }

// Rates returns the rating list.
func (e *Event) Rates() []Rating { return e.rates }

// Pictures returns the picture references.
func (e *Event) Pictures() []Picture { return e.pictures }

// Registrants returns the registered user ids.
func (e *Event) Registrants() []uuid.UUID { return e.registrants }

// Attendees returns the checked-in user ids.
func (e *Event) Attendees() []uuid.UUID { return e.attendees }

// HasEnded reports whether the event lifecycle is over.
func (e *Event) HasEnded() bool { return e.ended }

// CreatedAt returns the creation time.
func (e *Event) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns the last update time.
func (e *Event) UpdatedAt() time.Time { return e.updatedAt }

// IsCreator reports whether the given user owns this event.
func (e *Event) IsCreator(userID uuid.UUID) bool {
	return e.creator == userID
}

// AddRating appends a rating.
func (e *Event) AddRating(r Rating) {
	e.rates = append(e.rates, r)
	e.touch()
}

// RemoveRating drops the rating with the given id. It reports whether an
// entry was removed.
func (e *Event) RemoveRating(rateID uuid.UUID) bool {
	kept := e.rates[:0]
	removed := false
	for _, r := range e.rates {
		if r.RateID == rateID {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	e.rates = kept
	if removed {
		e.touch()
	}
	return removed
}

// AddPicture appends a picture reference.
func (e *Event) AddPicture(p Picture) {
	e.pictures = append(e.pictures, p)
	e.touch()
}

// IsRegistrant reports whether the user is in the registrant list.
func (e *Event) IsRegistrant(userID uuid.UUID) bool {
	return containsID(e.registrants, userID)
}

// IsAttendee reports whether the user has already checked in.
func (e *Event) IsAttendee(userID uuid.UUID) bool {
	return containsID(e.attendees, userID)
}

// CheckIn moves a registrant into the attendee set. A user who never
// registered, or who already checked in, is rejected.
func (e *Event) CheckIn(userID uuid.UUID) error {
	if !e.IsRegistrant(userID) {
		return errs.ErrInvalidInput
	}
	if e.IsAttendee(userID) {
		return errs.ErrInvalidInput
	}
	e.attendees = append(e.attendees, userID)
	e.touch()
	return nil
}

// Register adds a user to the registrant list. Registering twice is a no-op.
func (e *Event) Register(userID uuid.UUID) {
	if e.IsRegistrant(userID) {
		return
	}
	e.registrants = append(e.registrants, userID)
	e.touch()
}

func (e *Event) touch() {
	e.updatedAt = time.Now().UTC()
}

func containsID(list []uuid.UUID, id uuid.UUID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
