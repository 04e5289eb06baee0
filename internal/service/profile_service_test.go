package service_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/service"
)

// mockProfileUserRepository is a mock implementation of ProfileServiceUserRepository.
type mockProfileUserRepository struct {
	findByIDFunc        func(ctx context.Context, id uuid.UUID) (*user.User, error)
	searchFunc          func(ctx context.Context, filter user.SearchFilter) ([]*user.User, error)
	updateProfileFunc   func(ctx context.Context, id uuid.UUID, patch user.ProfilePatch) (*user.User, error)
	setStyleFunc        func(ctx context.Context, id uuid.UUID, style user.Style) error
	setProfilePhotoFunc func(ctx context.Context, id uuid.UUID, name string) error
}

func (m *mockProfileUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, errs.ErrNotFound
}

func (m *mockProfileUserRepository) Search(ctx context.Context, filter user.SearchFilter) ([]*user.User, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockProfileUserRepository) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	patch user.ProfilePatch,
) (*user.User, error) {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(ctx, id, patch)
	}
	return nil, errs.ErrNotFound
}

func (m *mockProfileUserRepository) SetStyle(ctx context.Context, id uuid.UUID, style user.Style) error {
	if m.setStyleFunc != nil {
		return m.setStyleFunc(ctx, id, style)
	}
	return nil
}

func (m *mockProfileUserRepository) SetProfilePhoto(ctx context.Context, id uuid.UUID, name string) error {
	if m.setProfilePhotoFunc != nil {
		return m.setProfilePhotoFunc(ctx, id, name)
	}
	return nil
}

// fakePictureStore records stored objects in memory.
type fakePictureStore struct {
	objects map[string][]byte
	deleted []string
}

func newFakePictureStore() *fakePictureStore {
	return &fakePictureStore{objects: make(map[string][]byte)}
}

func (f *fakePictureStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakePictureStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

// userWithUnlockedHead builds a user whose head slot has an extra unlocked variant.
func userWithUnlockedHead(variants ...string) *user.User {
	unlocked := user.DefaultUnlockedStyle()
	unlocked.Head = append(unlocked.Head, variants...)
	now := time.Now().UTC()
	return user.Reconstruct(user.Snapshot{
		ID:           uuid.NewUUID(),
		Username:     "maya",
		Email:        "maya@example.com",
		PasswordHash: "hash",
		Role:         user.RoleUser,
		Style:        user.DefaultStyle(),
		Unlocked:     unlocked,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func strPtr(s string) *string { return &s }

func TestProfileService_ChangeAvatarStyle(t *testing.T) {
	t.Run("applies unlocked variant and persists", func(t *testing.T) {
		u := userWithUnlockedHead("3")
		var persisted *user.Style
		users := &mockProfileUserRepository{
			findByIDFunc: func(_ context.Context, _ uuid.UUID) (*user.User, error) { return u, nil },
			setStyleFunc: func(_ context.Context, _ uuid.UUID, style user.Style) error {
				persisted = &style
				return nil
			},
		}
		svc := service.NewProfileService(service.ProfileServiceConfig{Users: users})

		style, err := svc.ChangeAvatarStyle(context.Background(), u.ID(), user.StylePatch{Head: strPtr("3")})

		require.NoError(t, err)
		assert.Equal(t, "3", style.Head)
		assert.Equal(t, "0", style.Body)
		require.NotNil(t, persisted)
		assert.Equal(t, "3", persisted.Head)
	})

	t.Run("locked variant is rejected", func(t *testing.T) {
		u := userWithUnlockedHead()
		styleSet := false
		users := &mockProfileUserRepository{
			findByIDFunc: func(_ context.Context, _ uuid.UUID) (*user.User, error) { return u, nil },
			setStyleFunc: func(_ context.Context, _ uuid.UUID, _ user.Style) error {
				styleSet = true
				return nil
			},
		}
		svc := service.NewProfileService(service.ProfileServiceConfig{Users: users})

		_, err := svc.ChangeAvatarStyle(context.Background(), u.ID(), user.StylePatch{Head: strPtr("7")})

		assert.ErrorIs(t, err, errs.ErrInvalidInput)
		assert.False(t, styleSet)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := service.NewProfileService(service.ProfileServiceConfig{Users: &mockProfileUserRepository{}})

		_, err := svc.ChangeAvatarStyle(context.Background(), uuid.NewUUID(), user.StylePatch{})

		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestProfileService_GetAvatar(t *testing.T) {
	u := userWithUnlockedHead("3")
	users := &mockProfileUserRepository{
		findByIDFunc: func(_ context.Context, _ uuid.UUID) (*user.User, error) { return u, nil },
	}
	svc := service.NewProfileService(service.ProfileServiceConfig{Users: users})

	style, err := svc.GetAvatar(context.Background(), u.ID())
	require.NoError(t, err)
	assert.Equal(t, user.DefaultStyle(), style)

	unlocked, err := svc.GetUnlockedAvatars(context.Background(), u.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "3"}, unlocked.Head)
}

func TestProfileService_UploadProfilePicture(t *testing.T) {
	t.Run("stores file and records reference", func(t *testing.T) {
		u := userWithUnlockedHead()
		var recorded string
		users := &mockProfileUserRepository{
			findByIDFunc: func(_ context.Context, _ uuid.UUID) (*user.User, error) { return u, nil },
			setProfilePhotoFunc: func(_ context.Context, _ uuid.UUID, name string) error {
				recorded = name
				return nil
			},
		}
		store := newFakePictureStore()
		svc := service.NewProfileService(service.ProfileServiceConfig{Users: users, Pictures: store})

		key, err := svc.UploadProfilePicture(
			context.Background(), u.ID(), "selfie.PNG",
			strings.NewReader("img-bytes"), 9, "image/png",
		)

		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(key, ".png"))
		assert.Equal(t, key, recorded)
		assert.Equal(t, []byte("img-bytes"), store.objects[key])
	})

	t.Run("unknown user stores nothing", func(t *testing.T) {
		store := newFakePictureStore()
		svc := service.NewProfileService(service.ProfileServiceConfig{
			Users:    &mockProfileUserRepository{},
			Pictures: store,
		})

		_, err := svc.UploadProfilePicture(
			context.Background(), uuid.NewUUID(), "selfie.png",
			strings.NewReader("img"), 3, "image/png",
		)

		assert.ErrorIs(t, err, errs.ErrNotFound)
		assert.Empty(t, store.objects)
	})
}

func TestProfileService_Search(t *testing.T) {
	u := userWithUnlockedHead()
	users := &mockProfileUserRepository{
		searchFunc: func(_ context.Context, filter user.SearchFilter) ([]*user.User, error) {
			assert.Equal(t, "may", filter.Username)
			return []*user.User{u}, nil
		},
	}
	svc := service.NewProfileService(service.ProfileServiceConfig{Users: users})

	found, err := svc.Search(context.Background(), user.SearchFilter{Username: "may"})

	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, u.ID(), found[0].ID())
}
