package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userdomain "github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/infrastructure/auth"
)

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		ResetSecret:   "reset-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    90 * 24 * time.Hour,
		ResetTTL:      5 * time.Minute,
	})
}

func testTokenUser(t *testing.T) *userdomain.User {
	t.Helper()
	u, err := userdomain.NewUser("alice", "alice@example.com", "+33600000001", "hashed")
	require.NoError(t, err)
	return u
}

func TestAccessToken_RoundTrip(t *testing.T) {
	m := testJWTManager()
	u := testTokenUser(t)

	token, err := m.IssueAccessToken(u)
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID().String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, string(userdomain.RoleUser), claims.Role)
	assert.Equal(t, "+33600000001", claims.Profile.Phone)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenKinds_NotInterchangeable(t *testing.T) {
	m := testJWTManager()
	u := testTokenUser(t)

	access, err := m.IssueAccessToken(u)
	require.NoError(t, err)
	refresh, err := m.IssueRefreshToken(u.ID())
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = m.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = m.VerifyResetToken(access)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	m := testJWTManager()
	u := testTokenUser(t)

	token, err := m.IssueRefreshToken(u.ID())
	require.NoError(t, err)

	claims, err := m.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID().String(), claims.UserID)
	assert.NotEmpty(t, claims.ID)
}

func TestResetToken_RoundTrip(t *testing.T) {
	m := testJWTManager()

	token, tokenID, err := m.IssueResetToken("alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)

	claims, err := m.VerifyResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, tokenID, claims.ID)
}

func TestResetToken_Expired(t *testing.T) {
	m := auth.NewJWTManager(auth.JWTConfig{
		AccessSecret:  "a",
		RefreshSecret: "b",
		ResetSecret:   "c",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
		ResetTTL:      -time.Minute,
	})

	token, _, err := m.IssueResetToken("alice@example.com")
	require.NoError(t, err)

	_, err = m.VerifyResetToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerify_TamperedToken(t *testing.T) {
	m := testJWTManager()
	u := testTokenUser(t)

	token, err := m.IssueAccessToken(u)
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token + "x")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
