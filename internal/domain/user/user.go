// Package user contains the user aggregate: identity, credentials, avatar
// style state, reservations, ratings, pictures, group memberships,
// invitations, friends and favorites.
package user

import (
	"time"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// Role is the access level of a user.
type Role string

// User roles.
const (
	RoleUser  Role = "User"
	RolePro   Role = "Pro"
	RoleAdmin Role = "Admin"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RolePro || r == RoleAdmin
}

// Style holds the selected avatar variant per slot.
type Style struct {
	Head  string
	Body  string
	Pants string
	Shoes string
}

// StylePatch is a partial style update. Nil slots are left untouched.
type StylePatch struct {
	Head  *string
	Body  *string
	Pants *string
	Shoes *string
}

// UnlockedStyle holds the unlocked variant ids per slot.
type UnlockedStyle struct {
	Head  []string
	Body  []string
	Pants []string
	Shoes []string
}

// Rating is the user-side mirror of a rating attached to an event.
type Rating struct {
	RateID  uuid.UUID
	EventID uuid.UUID
	Stars   int
	Comment string
}

// Picture is the user-side mirror of a picture uploaded to an event.
type Picture struct {
	PictureID string
	EventID   uuid.UUID
}

// Membership records when the user joined a group.
type Membership struct {
	GroupID  uuid.UUID
	JoinedAt time.Time
}

// GroupInvitation is a pending invitation to join a group.
type GroupInvitation struct {
	GroupID   uuid.UUID
	CreatedAt time.Time
}

// FriendInvitation is a pending invitation from another user.
type FriendInvitation struct {
	UserID    uuid.UUID
	CreatedAt time.Time
}

const defaultVariant = "0"

// User is the user aggregate root.
type User struct {
	id           uuid.UUID
	username     string
	email        string
	phone        string
	passwordHash string
	role         Role

	gender       string
	birthdate    *time.Time
	description  string
	preferences  []string
	profilePhoto string

	style    Style
	unlocked UnlockedStyle

	reservations []string
	rates        []Rating
	pictures     []Picture
	groups       []Membership
	groupInvites []GroupInvitation
	friendInvs   []FriendInvitation
	friends      []uuid.UUID
	favorites    []string

	createdAt time.Time
	updatedAt time.Time
}

// NewUser creates a user with default role, avatar state and empty collections.
func NewUser(username, email, phone, passwordHash string) (*User, error) {
	if username == "" || email == "" || passwordHash == "" {
		return nil, errs.ErrInvalidInput
	}

	now := time.Now().UTC()
	return &User{
		id:           uuid.NewUUID(),
		username:     username,
		email:        email,
		phone:        phone,
		passwordHash: passwordHash,
		role:         RoleUser,
		style:        DefaultStyle(),
		unlocked:     DefaultUnlockedStyle(),
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// DefaultStyle returns the avatar style assigned on registration.
func DefaultStyle() Style {
	return Style{Head: defaultVariant, Body: defaultVariant, Pants: defaultVariant, Shoes: defaultVariant}
}

// DefaultUnlockedStyle returns the unlocked variant sets assigned on registration.
func DefaultUnlockedStyle() UnlockedStyle {
	return UnlockedStyle{
		Head:  []string{defaultVariant},
		Body:  []string{defaultVariant},
		Pants: []string{defaultVariant},
		Shoes: []string{defaultVariant},
	}
}

// Snapshot carries every persisted field of a user for Reconstruct.
type Snapshot struct {
	ID           uuid.UUID
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	Gender       string
	Birthdate    *time.Time
	Description  string
	Preferences  []string
	ProfilePhoto string
	Style        Style
	Unlocked     UnlockedStyle
	Reservations []string
	Rates        []Rating
	Pictures     []Picture
	Groups       []Membership
	GroupInvites []GroupInvitation
	FriendInvs   []FriendInvitation
	Friends      []uuid.UUID
	Favorites    []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Reconstruct restores a user from storage.
func Reconstruct(snap Snapshot) *User {
	return &User{
		id:           snap.ID,
		username:     snap.Username,
		email:        snap.Email,
		phone:        snap.Phone,
		passwordHash: snap.PasswordHash,
		role:         snap.Role,
		gender:       snap.Gender,
		birthdate:    snap.Birthdate,
		description:  snap.Description,
		preferences:  snap.Preferences,
		profilePhoto: snap.ProfilePhoto,
		style:        snap.Style,
		unlocked:     snap.Unlocked,
		reservations: snap.Reservations,
		rates:        snap.Rates,
		pictures:     snap.Pictures,
		groups:       snap.Groups,
		groupInvites: snap.GroupInvites,
		friendInvs:   snap.FriendInvs,
		friends:      snap.Friends,
		favorites:    snap.Favorites,
		createdAt:    snap.CreatedAt,
		updatedAt:    snap.UpdatedAt,
	}
}

// ID returns the user id.
func (u *User) ID() uuid.UUID { return u.id }

// Username returns the unique username.
func (u *User) Username() string { return u.username }

// Email returns the unique email.
func (u *User) Email() string { return u.email }

// Phone returns the unique phone number.
func (u *User) Phone() string { return u.phone }

// PasswordHash returns the stored credential hash.
func (u *User) PasswordHash() string { return u.passwordHash }

// Role returns the user role.
func (u *User) Role() Role { return u.role }

// Gender returns the declared gender.
func (u *User) Gender() string { return u.gender }

// Birthdate returns the birthdate, if set.
func (u *User) Birthdate() *time.Time { return u.birthdate }

// Description returns the free-text description.
func (u *User) Description() string { return u.description }

// Preferences returns the category preferences.
func (u *User) Preferences() []string { return u.preferences }

// ProfilePhoto returns the profile photo reference.
func (u *User) ProfilePhoto() string { return u.profilePhoto }

// Style returns the current avatar style.
func (u *User) Style() Style { return u.style }

// UnlockedStyle returns the unlocked variant sets.
func (u *User) UnlockedStyle() UnlockedStyle { return u.unlocked }

// Reservations returns the ordered reservation list.
func (u *User) Reservations() []string { return u.reservations }

// Rates returns the user's rating mirror list.
func (u *User) Rates() []Rating { return u.rates }

// Pictures returns the user's picture mirror list.
func (u *User) Pictures() []Picture { return u.pictures }

// Groups returns the group membership records.
func (u *User) Groups() []Membership { return u.groups }

// GroupInvitations returns pending group invitations.
func (u *User) GroupInvitations() []GroupInvitation { return u.groupInvites }

// FriendInvitations returns pending friend invitations.
func (u *User) FriendInvitations() []FriendInvitation { return u.friendInvs }

// Friends returns the friend references.
func (u *User) Friends() []uuid.UUID { return u.friends }

// Favorites returns the favorite event ids.
func (u *User) Favorites() []string { return u.favorites }

// CreatedAt returns the creation time.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns the last update time.
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// SetPasswordHash replaces the stored credential hash.
func (u *User) SetPasswordHash(hash string) error {
	if hash == "" {
		return errs.ErrInvalidInput
	}
	u.passwordHash = hash
	u.touch()
	return nil
}

// SetProfilePhoto replaces the profile photo reference.
func (u *User) SetProfilePhoto(name string) {
	u.profilePhoto = name
	u.touch()
}

// ApplyStyle merges the provided slots into the current style. Every provided
// variant must belong to the matching unlocked set.
func (u *User) ApplyStyle(patch StylePatch) error {
	type slot struct {
		value    *string
		unlocked []string
		target   *string
	}
	slots := []slot{
		{patch.Head, u.unlocked.Head, &u.style.Head},
		{patch.Body, u.unlocked.Body, &u.style.Body},
		{patch.Pants, u.unlocked.Pants, &u.style.Pants},
		{patch.Shoes, u.unlocked.Shoes, &u.style.Shoes},
	}

	for _, s := range slots {
		if s.value != nil && !containsString(s.unlocked, *s.value) {
			return errs.ErrInvalidInput
		}
	}
	for _, s := range slots {
		if s.value != nil {
			*s.target = *s.value
		}
	}
	u.touch()
	return nil
}

// AddReservations unions the given event ids into the reservation list,
// collapsing duplicates while preserving first-seen order.
func (u *User) AddReservations(eventIDs []string) {
	for _, id := range eventIDs {
		if id == "" || containsString(u.reservations, id) {
			continue
		}
		u.reservations = append(u.reservations, id)
	}
	u.touch()
}

// RemoveReservations deletes every occurrence of the given event ids.
func (u *User) RemoveReservations(eventIDs []string) {
	u.reservations = removeStrings(u.reservations, eventIDs)
	u.touch()
}

// AddFavorite adds an event id to the favorites set.
func (u *User) AddFavorite(eventID string) {
	if eventID == "" || containsString(u.favorites, eventID) {
		return
	}
	u.favorites = append(u.favorites, eventID)
	u.touch()
}

// RemoveFavorite removes an event id from the favorites set.
func (u *User) RemoveFavorite(eventID string) {
	u.favorites = removeStrings(u.favorites, []string{eventID})
	u.touch()
}

// HasGroupInvitation reports whether a pending invitation exists for the group.
func (u *User) HasGroupInvitation(groupID uuid.UUID) bool {
	for _, inv := range u.groupInvites {
		if inv.GroupID == groupID {
			return true
		}
	}
	return false
}

// AddGroupInvitation records a pending invitation. Adding a duplicate is a no-op.
func (u *User) AddGroupInvitation(groupID uuid.UUID) {
	if u.HasGroupInvitation(groupID) {
		return
	}
	u.groupInvites = append(u.groupInvites, GroupInvitation{GroupID: groupID, CreatedAt: time.Now().UTC()})
	u.touch()
}

// RemoveGroupInvitation drops the pending invitation for the group, if any.
func (u *User) RemoveGroupInvitation(groupID uuid.UUID) {
	kept := u.groupInvites[:0]
	for _, inv := range u.groupInvites {
		if inv.GroupID != groupID {
			kept = append(kept, inv)
		}
	}
	u.groupInvites = kept
	u.touch()
}

// IsGroupMember reports whether the user has a membership record for the group.
func (u *User) IsGroupMember(groupID uuid.UUID) bool {
	for _, m := range u.groups {
		if m.GroupID == groupID {
			return true
		}
	}
	return false
}

// JoinGroup records a membership. Joining twice is a no-op.
func (u *User) JoinGroup(groupID uuid.UUID) {
	if u.IsGroupMember(groupID) {
		return
	}
	u.groups = append(u.groups, Membership{GroupID: groupID, JoinedAt: time.Now().UTC()})
	u.touch()
}

// HasFriendInvitation reports whether a pending invitation from the user exists.
func (u *User) HasFriendInvitation(userID uuid.UUID) bool {
	for _, inv := range u.friendInvs {
		if inv.UserID == userID {
			return true
		}
	}
	return false
}

// AddFriendInvitation records a pending friend invitation. Duplicates collapse.
func (u *User) AddFriendInvitation(userID uuid.UUID) {
	if u.HasFriendInvitation(userID) {
		return
	}
	u.friendInvs = append(u.friendInvs, FriendInvitation{UserID: userID, CreatedAt: time.Now().UTC()})
	u.touch()
}

// RemoveFriendInvitation drops the pending invitation from the user, if any.
func (u *User) RemoveFriendInvitation(userID uuid.UUID) {
	kept := u.friendInvs[:0]
	for _, inv := range u.friendInvs {
		if inv.UserID != userID {
			kept = append(kept, inv)
		}
	}
	u.friendInvs = kept
	u.touch()
}

// IsFriend reports whether the given user is already a friend.
func (u *User) IsFriend(userID uuid.UUID) bool {
	for _, f := range u.friends {
		if f == userID {
			return true
		}
	}
	return false
}

// AddFriend records a friend reference. Adding twice is a no-op.
func (u *User) AddFriend(userID uuid.UUID) {
	if u.IsFriend(userID) {
		return
	}
	u.friends = append(u.friends, userID)
	u.touch()
}

// FindRating returns the user's rating mirror with the given rate id.
func (u *User) FindRating(rateID uuid.UUID) (Rating, bool) {
	for _, r := range u.rates {
		if r.RateID == rateID {
			return r, true
		}
	}
	return Rating{}, false
}

// AddRating appends a rating mirror entry.
func (u *User) AddRating(r Rating) {
	u.rates = append(u.rates, r)
	u.touch()
}

// RemoveRating drops the rating mirror with the given rate id.
func (u *User) RemoveRating(rateID uuid.UUID) {
	kept := u.rates[:0]
	for _, r := range u.rates {
		if r.RateID != rateID {
			kept = append(kept, r)
		}
	}
	u.rates = kept
	u.touch()
}

// AddPicture appends a picture mirror entry.
func (u *User) AddPicture(p Picture) {
	u.pictures = append(u.pictures, p)
	u.touch()
}

// RemovePicture drops the picture mirror with the given picture id.
func (u *User) RemovePicture(pictureID string) {
	kept := u.pictures[:0]
	for _, p := range u.pictures {
		if p.PictureID != pictureID {
			kept = append(kept, p)
		}
	}
	u.pictures = kept
	u.touch()
}

func (u *User) touch() {
	u.updatedAt = time.Now().UTC()
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeStrings(list, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, s := range remove {
		drop[s] = struct{}{}
	}
	kept := list[:0]
	for _, v := range list {
		if _, ok := drop[v]; !ok {
			kept = append(kept, v)
		}
	}
	return kept
}
