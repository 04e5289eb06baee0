package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// ProfileServiceUserRepository defines the user data access the profile
// service needs. Declared on the consumer side per project guidelines.
type ProfileServiceUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	Search(ctx context.Context, filter user.SearchFilter) ([]*user.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch user.ProfilePatch) (*user.User, error)
	SetStyle(ctx context.Context, id uuid.UUID, style user.Style) error
	SetProfilePhoto(ctx context.Context, id uuid.UUID, name string) error
}

// ProfileServicePictureStore stores uploaded profile pictures.
// Declared on the consumer side per project guidelines.
type ProfileServicePictureStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// ProfileService implements profile reads, updates, avatar state and profile
// picture upload.
type ProfileService struct {
	users    ProfileServiceUserRepository
	pictures ProfileServicePictureStore
	logger   *slog.Logger
}

// ProfileServiceConfig contains dependencies for ProfileService.
type ProfileServiceConfig struct {
	Users    ProfileServiceUserRepository
	Pictures ProfileServicePictureStore
	Logger   *slog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(cfg ProfileServiceConfig) *ProfileService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ProfileService{
		users:    cfg.Users,
		pictures: cfg.Pictures,
		logger:   logger,
	}
}

// GetProfile returns the profile of the given user.
func (s *ProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.users.FindByID(ctx, id)
}

// Search lists users matching the filter. An empty filter matches everyone.
func (s *ProfileService) Search(ctx context.Context, filter user.SearchFilter) ([]*user.User, error) {
	return s.users.Search(ctx, filter)
}

// UpdateProfile applies a partial profile update and returns the result.
func (s *ProfileService) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	patch user.ProfilePatch,
) (*user.User, error) {
	u, err := s.users.UpdateProfile(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "profile updated",
		slog.String("user_id", id.String()),
	)

	return u, nil
}

// GetAvatar returns the user's current avatar style.
func (s *ProfileService) GetAvatar(ctx context.Context, id uuid.UUID) (user.Style, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return user.Style{}, err
	}
	return u.Style(), nil
}

// GetUnlockedAvatars returns the user's unlocked variant sets.
func (s *ProfileService) GetUnlockedAvatars(ctx context.Context, id uuid.UUID) (user.UnlockedStyle, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return user.UnlockedStyle{}, err
	}
	return u.UnlockedStyle(), nil
}

// ChangeAvatarStyle merges the provided slots into the user's style. Each
// provided variant must belong to the matching unlocked set.
func (s *ProfileService) ChangeAvatarStyle(
	ctx context.Context,
	id uuid.UUID,
	patch user.StylePatch,
) (user.Style, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return user.Style{}, err
	}

	if applyErr := u.ApplyStyle(patch); applyErr != nil {
		return user.Style{}, applyErr
	}

	if setErr := s.users.SetStyle(ctx, id, u.Style()); setErr != nil {
		return user.Style{}, fmt.Errorf("failed to persist style: %w", setErr)
	}

	return u.Style(), nil
}

// UploadProfilePicture stores the file under a generated name and records it
// as the user's profile photo. The generated name is returned.
func (s *ProfileService) UploadProfilePicture(
	ctx context.Context,
	id uuid.UUID,
	filename string,
	r io.Reader,
	size int64,
	contentType string,
) (string, error) {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return "", err
	}

	key := generatePictureKey(filename)
	if err := s.pictures.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("failed to store profile picture: %w", err)
	}

	if setErr := s.users.SetProfilePhoto(ctx, id, key); setErr != nil {
		return "", fmt.Errorf("failed to record profile photo: %w", setErr)
	}

	s.logger.InfoContext(ctx, "profile picture uploaded",
		slog.String("user_id", id.String()),
		slog.String("picture", key),
	)

	return key, nil
}

// generatePictureKey builds a non-guessable object key preserving the
// original file extension.
func generatePictureKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return uuid.NewUUID().String() + ext
}
