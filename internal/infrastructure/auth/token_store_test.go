package auth_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/auth"
)

// setupTokenStore connects to the Redis instance named by TEST_REDIS_ADDR.
// The tests are skipped when no instance is available.
func setupTokenStore(t *testing.T) *auth.TokenStore {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return auth.NewTokenStore(auth.TokenStoreConfig{
		Client:    client,
		KeyPrefix: "test:" + uuid.NewUUID().String() + ":",
	})
}

func TestTokenStore_RefreshTokenLifecycle(t *testing.T) {
	store := setupTokenStore(t)
	ctx := context.Background()
	userID := uuid.NewUUID()

	_, err := store.GetRefreshToken(ctx, userID)
	assert.ErrorIs(t, err, auth.ErrTokenNotFound)

	require.NoError(t, store.StoreRefreshToken(ctx, userID, "refresh-1", time.Hour))

	got, err := store.GetRefreshToken(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", got)

	// storing again replaces the previous token
	require.NoError(t, store.StoreRefreshToken(ctx, userID, "refresh-2", time.Hour))
	got, err = store.GetRefreshToken(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", got)

	require.NoError(t, store.DeleteRefreshToken(ctx, userID))
	_, err = store.GetRefreshToken(ctx, userID)
	assert.ErrorIs(t, err, auth.ErrTokenNotFound)
}

func TestTokenStore_ResetTokenSingleUse(t *testing.T) {
	store := setupTokenStore(t)
	ctx := context.Background()
	tokenID := uuid.NewUUID().String()

	used, err := store.IsResetTokenUsed(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, used)

	first, err := store.MarkResetTokenUsed(ctx, tokenID, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.MarkResetTokenUsed(ctx, tokenID, time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	used, err = store.IsResetTokenUsed(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, used)
}

func TestTokenStore_Validation(t *testing.T) {
	store := auth.NewTokenStore(auth.TokenStoreConfig{Client: redis.NewClient(&redis.Options{})})
	ctx := context.Background()

	assert.Error(t, store.StoreRefreshToken(ctx, "", "token", time.Hour))
	assert.Error(t, store.StoreRefreshToken(ctx, uuid.NewUUID(), "", time.Hour))

	_, err := store.GetRefreshToken(ctx, "")
	assert.Error(t, err)

	_, err = store.MarkResetTokenUsed(ctx, "", time.Minute)
	assert.Error(t, err)
}
