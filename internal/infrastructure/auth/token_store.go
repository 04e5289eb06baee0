package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// Token store errors.
var (
	ErrTokenNotFound = errors.New("token not found")
)

// TokenStore manages refresh tokens and reset-token consumption markers in
// Redis.
type TokenStore struct {
	client    *redis.Client
	keyPrefix string
}

// TokenStoreConfig contains configuration for TokenStore.
type TokenStoreConfig struct {
	Client    *redis.Client
	KeyPrefix string
}

const (
	defaultKeyPrefix = "auth:"
)

// NewTokenStore creates a new Redis-based token store.
func NewTokenStore(cfg TokenStoreConfig) *TokenStore {
	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	return &TokenStore{
		client:    cfg.Client,
		keyPrefix: keyPrefix,
	}
}

// refreshKey generates the Redis key for a user's refresh token.
func (s *TokenStore) refreshKey(userID uuid.UUID) string {
	return fmt.Sprintf("%srefresh_token:%s", s.keyPrefix, userID.String())
}

// resetKey generates the Redis key for a consumed reset token.
func (s *TokenStore) resetKey(tokenID string) string {
	return fmt.Sprintf("%sreset_used:%s", s.keyPrefix, tokenID)
}

// StoreRefreshToken stores a refresh token for a user with the given TTL.
func (s *TokenStore) StoreRefreshToken(
	ctx context.Context,
	userID uuid.UUID,
	refreshToken string,
	ttl time.Duration,
) error {
	if userID.IsZero() {
		return errors.New("userID is required")
	}
	if refreshToken == "" {
		return errors.New("refreshToken is required")
	}

	key := s.refreshKey(userID)
	err := s.client.Set(ctx, key, refreshToken, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken retrieves the stored refresh token for a user.
func (s *TokenStore) GetRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if userID.IsZero() {
		return "", errors.New("userID is required")
	}

	key := s.refreshKey(userID)
	token, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to get refresh token: %w", err)
	}

	return token, nil
}

// DeleteRefreshToken removes a user's refresh token (logout).
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, userID uuid.UUID) error {
	if userID.IsZero() {
		return errors.New("userID is required")
	}

	key := s.refreshKey(userID)
	err := s.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	return nil
}

// MarkResetTokenUsed records a consumed password-reset token until it would
// have expired anyway. A second attempt to mark the same token reports that
// the token was already used.
func (s *TokenStore) MarkResetTokenUsed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if tokenID == "" {
		return false, errors.New("tokenID is required")
	}

	ok, err := s.client.SetNX(ctx, s.resetKey(tokenID), "used", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark reset token used: %w", err)
	}

	return ok, nil
}

// IsResetTokenUsed reports whether a reset token was already consumed.
func (s *TokenStore) IsResetTokenUsed(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, errors.New("tokenID is required")
	}

	exists, err := s.client.Exists(ctx, s.resetKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check reset token: %w", err)
	}

	return exists > 0, nil
}
