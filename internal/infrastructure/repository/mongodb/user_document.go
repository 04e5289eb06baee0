package mongodb

import (
	"time"

	"github.com/unbored-app/unbored/internal/domain/errs"
	userdomain "github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// userDocument is the MongoDB representation of a user.
type userDocument struct {
	UserID       string     `bson:"user_id"`
	Username     string     `bson:"username"`
	Email        string     `bson:"email"`
	Phone        string     `bson:"phone,omitempty"`
	PasswordHash string     `bson:"password_hash"`
	Role         string     `bson:"role"`
	Gender       string     `bson:"gender,omitempty"`
	Birthdate    *time.Time `bson:"birthdate,omitempty"`
	Description  string     `bson:"description,omitempty"`
	Preferences  []string   `bson:"preferences,omitempty"`
	ProfilePhoto string     `bson:"profile_photo,omitempty"`

	Style    styleDocument         `bson:"style"`
	Unlocked unlockedStyleDocument `bson:"unlocked_style"`

	Reservations []string                 `bson:"reservations,omitempty"`
	Rates        []userRatingDocument     `bson:"rates,omitempty"`
	Pictures     []userPictureDocument    `bson:"pictures,omitempty"`
	Groups       []membershipDocument     `bson:"groups,omitempty"`
	GroupInvites []groupInviteDocument    `bson:"group_invitations,omitempty"`
	FriendInvs   []friendInviteDocument   `bson:"friend_invitations,omitempty"`
	Friends      []string                 `bson:"friends,omitempty"`
	Favorites    []string                 `bson:"favorites,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type styleDocument struct {
	Head  string `bson:"head"`
	Body  string `bson:"body"`
	Pants string `bson:"pants"`
	Shoes string `bson:"shoes"`
}

type unlockedStyleDocument struct {
	Head  []string `bson:"head"`
	Body  []string `bson:"body"`
	Pants []string `bson:"pants"`
	Shoes []string `bson:"shoes"`
}

type userRatingDocument struct {
	RateID  string `bson:"rate_id"`
	EventID string `bson:"event_id"`
	Stars   int    `bson:"stars"`
	Comment string `bson:"comment,omitempty"`
}

type userPictureDocument struct {
	PictureID string `bson:"picture_id"`
	EventID   string `bson:"event_id"`
}

type membershipDocument struct {
	GroupID  string    `bson:"group_id"`
	JoinedAt time.Time `bson:"joined_at"`
}

type groupInviteDocument struct {
	GroupID   string    `bson:"group_id"`
	CreatedAt time.Time `bson:"created_at"`
}

type friendInviteDocument struct {
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func styleToDocument(s userdomain.Style) styleDocument {
	return styleDocument{Head: s.Head, Body: s.Body, Pants: s.Pants, Shoes: s.Shoes}
}

func userRatingToDocument(r userdomain.Rating) userRatingDocument {
	return userRatingDocument{
		RateID:  r.RateID.String(),
		EventID: r.EventID.String(),
		Stars:   r.Stars,
		Comment: r.Comment,
	}
}

func userPictureToDocument(p userdomain.Picture) userPictureDocument {
	return userPictureDocument{PictureID: p.PictureID, EventID: p.EventID.String()}
}

// userToDocument converts a domain user into its document form.
func userToDocument(u *userdomain.User) userDocument {
	unlocked := u.UnlockedStyle()

	doc := userDocument{
		UserID:       u.ID().String(),
		Username:     u.Username(),
		Email:        u.Email(),
		Phone:        u.Phone(),
		PasswordHash: u.PasswordHash(),
		Role:         string(u.Role()),
		Gender:       u.Gender(),
		Birthdate:    u.Birthdate(),
		Description:  u.Description(),
		Preferences:  u.Preferences(),
		ProfilePhoto: u.ProfilePhoto(),
		Style:        styleToDocument(u.Style()),
		Unlocked: unlockedStyleDocument{
			Head:  unlocked.Head,
			Body:  unlocked.Body,
			Pants: unlocked.Pants,
			Shoes: unlocked.Shoes,
		},
		Reservations: u.Reservations(),
		Friends:      idsToStrings(u.Friends()),
		Favorites:    u.Favorites(),
		CreatedAt:    u.CreatedAt(),
		UpdatedAt:    u.UpdatedAt(),
	}

	for _, r := range u.Rates() {
		doc.Rates = append(doc.Rates, userRatingToDocument(r))
	}
	for _, p := range u.Pictures() {
		doc.Pictures = append(doc.Pictures, userPictureToDocument(p))
	}
	for _, m := range u.Groups() {
		doc.Groups = append(doc.Groups, membershipDocument{GroupID: m.GroupID.String(), JoinedAt: m.JoinedAt})
	}
	for _, inv := range u.GroupInvitations() {
		doc.GroupInvites = append(doc.GroupInvites, groupInviteDocument{GroupID: inv.GroupID.String(), CreatedAt: inv.CreatedAt})
	}
	for _, inv := range u.FriendInvitations() {
		doc.FriendInvs = append(doc.FriendInvs, friendInviteDocument{UserID: inv.UserID.String(), CreatedAt: inv.CreatedAt})
	}

	return doc
}

// documentToUser converts a document back into a domain user.
func documentToUser(doc *userDocument) (*userdomain.User, error) {
	if doc == nil {
		return nil, errs.ErrInvalidInput
	}

	id, err := uuid.ParseUUID(doc.UserID)
	if err != nil {
		return nil, errs.ErrInvalidInput
	}

	snap := userdomain.Snapshot{
		ID:           id,
		Username:     doc.Username,
		Email:        doc.Email,
		Phone:        doc.Phone,
		PasswordHash: doc.PasswordHash,
		Role:         userdomain.Role(doc.Role),
		Gender:       doc.Gender,
		Birthdate:    doc.Birthdate,
		Description:  doc.Description,
		Preferences:  doc.Preferences,
		ProfilePhoto: doc.ProfilePhoto,
		Style: userdomain.Style{
			Head:  doc.Style.Head,
			Body:  doc.Style.Body,
			Pants: doc.Style.Pants,
			Shoes: doc.Style.Shoes,
		},
		Unlocked: userdomain.UnlockedStyle{
			Head:  doc.Unlocked.Head,
			Body:  doc.Unlocked.Body,
			Pants: doc.Unlocked.Pants,
			Shoes: doc.Unlocked.Shoes,
		},
		Reservations: doc.Reservations,
		Favorites:    doc.Favorites,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}

	for _, r := range doc.Rates {
		rateID, rerr := uuid.ParseUUID(r.RateID)
		if rerr != nil {
			return nil, errs.ErrInvalidInput
		}
		eventID, eerr := uuid.ParseUUID(r.EventID)
		if eerr != nil {
			return nil, errs.ErrInvalidInput
		}
		snap.Rates = append(snap.Rates, userdomain.Rating{
			RateID:  rateID,
			EventID: eventID,
			Stars:   r.Stars,
			Comment: r.Comment,
		})
	}
	for _, p := range doc.Pictures {
		eventID, perr := uuid.ParseUUID(p.EventID)
		if perr != nil {
			return nil, errs.ErrInvalidInput
		}
		snap.Pictures = append(snap.Pictures, userdomain.Picture{PictureID: p.PictureID, EventID: eventID})
	}
	for _, m := range doc.Groups {
		groupID, merr := uuid.ParseUUID(m.GroupID)
		if merr != nil {
			return nil, errs.ErrInvalidInput
		}
		snap.Groups = append(snap.Groups, userdomain.Membership{GroupID: groupID, JoinedAt: m.JoinedAt})
	}
	for _, inv := range doc.GroupInvites {
		groupID, ierr := uuid.ParseUUID(inv.GroupID)
		if ierr != nil {
			return nil, errs.ErrInvalidInput
		}
		snap.GroupInvites = append(snap.GroupInvites, userdomain.GroupInvitation{GroupID: groupID, CreatedAt: inv.CreatedAt})
	}
	for _, inv := range doc.FriendInvs {
		userID, ierr := uuid.ParseUUID(inv.UserID)
		if ierr != nil {
			return nil, errs.ErrInvalidInput
		}
		snap.FriendInvs = append(snap.FriendInvs, userdomain.FriendInvitation{UserID: userID, CreatedAt: inv.CreatedAt})
	}

	friends, err := stringsToIDs(doc.Friends)
	if err != nil {
		return nil, err
	}
	snap.Friends = friends

	return userdomain.Reconstruct(snap), nil
}

func idsToStrings(ids []uuid.UUID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func stringsToIDs(values []string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.ParseUUID(v)
		if err != nil {
			return nil, errs.ErrInvalidInput
		}
		out = append(out, id)
	}
	return out, nil
}
