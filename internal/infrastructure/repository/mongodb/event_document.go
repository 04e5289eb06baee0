package mongodb

import (
	"time"

	"github.com/unbored-app/unbored/internal/domain/errs"
	eventdomain "github.com/unbored-app/unbored/internal/domain/event"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// eventDocument is the MongoDB representation of an event.
type eventDocument struct {
	EventID     string     `bson:"event_id"`
	Name        string     `bson:"name"`
	Address     string     `bson:"address,omitempty"`
	Description string     `bson:"description,omitempty"`
	Categories  []string   `bson:"categories"`
	StartDate   *time.Time `bson:"start_date,omitempty"`
	EndDate     *time.Time `bson:"end_date,omitempty"`
	Creator     string     `bson:"creator"`
	Private     bool       `bson:"private"`

	Price   string   `bson:"price,omitempty"`
	Age     string   `bson:"age,omitempty"`
	Phone   string   `bson:"phone,omitempty"`
	Email   string   `bson:"email,omitempty"`
	Rewards []string `bson:"rewards,omitempty"`

	Rates       []eventRatingDocument  `bson:"rates,omitempty"`
	Pictures    []eventPictureDocument `bson:"pictures,omitempty"`
	Registrants []string               `bson:"registrants,omitempty"`
	Attendees   []string               `bson:"attendees,omitempty"`
	Ended       bool                   `bson:"ended"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type eventRatingDocument struct {
	RateID  string `bson:"rate_id"`
	Stars   int    `bson:"stars"`
	Comment string `bson:"comment,omitempty"`
}

type eventPictureDocument struct {
	PictureID string `bson:"picture_id"`
	UserID    string `bson:"user_id"`
}

func eventRatingToDocument(r eventdomain.Rating) eventRatingDocument {
	return eventRatingDocument{RateID: r.RateID.String(), Stars: r.Stars, Comment: r.Comment}
}

func eventPictureToDocument(p eventdomain.Picture) eventPictureDocument {
	return eventPictureDocument{PictureID: p.PictureID, UserID: p.UserID.String()}
}

// eventToDocument converts a domain event into its document form.
func eventToDocument(e *eventdomain.Event) eventDocument {
	doc := eventDocument{
		EventID:     e.ID().String(),
		Name:        e.Name(),
		Address:     e.Address(),
		Description: e.Description(),
		Categories:  e.Categories(),
		StartDate:   e.StartDate(),
		EndDate:     e.EndDate(),
		Creator:     e.Creator().String(),
		Private:     e.IsPrivate(),
		Price:       e.Price(),
		Age:         e.Age(),
		Phone:       e.Phone(),
		Email:       e.Email(),
		Rewards:     e.Rewards(),
		Registrants: idsToStrings(e.Registrants()),
		Attendees:   idsToStrings(e.Attendees()),
		Ended:       e.HasEnded(),
		CreatedAt:   e.CreatedAt(),
		UpdatedAt:   e.UpdatedAt(),
	}

	for _, r := range e.Rates() {
		doc.Rates = append(doc.Rates, eventRatingToDocument(r))
	}
	for _, p := range e.Pictures() {
		doc.Pictures = append(doc.Pictures, eventPictureToDocument(p))
	}

	return doc
}

// documentToEvent converts a document back into a domain event.
func documentToEvent(doc *eventDocument) (*eventdomain.Event, error) {
	if doc == nil {
		return nil, errs.ErrInvalidInput
	}

	id, err := uuid.ParseUUID(doc.EventID)
	if err != nil {
		return nil, errs.ErrInvalidInput
	}
	creator, err := uuid.ParseUUID(doc.Creator)
	if err != nil {
		return nil, errs.ErrInvalidInput
	}

	snap := eventdomain.Snapshot{
		ID:          id,
		Name:        doc.Name,
		Address:     doc.Address,
		Description: doc.Description,
		Categories:  doc.Categories,
		StartDate:   doc.StartDate,
		EndDate:     doc.EndDate,
		Creator:     creator,
		Private:     doc.Private,
		Price:       doc.Price,
		Age:         doc.Age,
		Phone:       doc.Phone,
		Email:       doc.Email,
		Rewards:     doc.Rewards,
		Ended:       doc.Ended,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}

	for _, r := range doc.Rates {
		rateID, rerr := uuid.ParseUUID(r.RateID)
		if rerr != nil {
			return nil, errs.ErrInvalidInput
		}
		snap.Rates = append(snap.Rates, eventdomain.Rating{RateID: rateID, Stars: r.Stars, Comment: r.Comment})
	}
	for _, p := range doc.Pictures {
		userID, perr := uuid.ParseUUID(p.UserID)
		if perr != nil {
			return nil, errs.ErrInvalidInput
		}
		snap.Pictures = append(snap.Pictures, eventdomain.Picture{PictureID: p.PictureID, UserID: userID})
	}

	registrants, err := stringsToIDs(doc.Registrants)
	if err != nil {
		return nil, err
	}
	snap.Registrants = registrants

	attendees, err := stringsToIDs(doc.Attendees)
	if err != nil {
		return nil, err
	}
	snap.Attendees = attendees

	return eventdomain.Reconstruct(snap), nil
}
