package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/auth"
	"github.com/unbored-app/unbored/internal/service"
)

// mockAuthUserRepository is a mock implementation of AuthServiceUserRepository.
type mockAuthUserRepository struct {
	findByIDFunc           func(ctx context.Context, id uuid.UUID) (*user.User, error)
	findByEmailFunc        func(ctx context.Context, email string) (*user.User, error)
	existsAnyFunc          func(ctx context.Context, username, email, phone string) (bool, error)
	saveFunc               func(ctx context.Context, u *user.User) error
	setPasswordByEmailFunc func(ctx context.Context, email, passwordHash string) error
}

func (m *mockAuthUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, errs.ErrNotFound
}

func (m *mockAuthUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, errs.ErrNotFound
}

func (m *mockAuthUserRepository) ExistsAny(ctx context.Context, username, email, phone string) (bool, error) {
	if m.existsAnyFunc != nil {
		return m.existsAnyFunc(ctx, username, email, phone)
	}
	return false, nil
}

func (m *mockAuthUserRepository) Save(ctx context.Context, u *user.User) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, u)
	}
	return nil
}

func (m *mockAuthUserRepository) SetPasswordByEmail(ctx context.Context, email, passwordHash string) error {
	if m.setPasswordByEmailFunc != nil {
		return m.setPasswordByEmailFunc(ctx, email, passwordHash)
	}
	return nil
}

// fakeTokenStore keeps refresh tokens and reset markers in memory.
type fakeTokenStore struct {
	refresh   map[uuid.UUID]string
	usedReset map[string]bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		refresh:   make(map[uuid.UUID]string),
		usedReset: make(map[string]bool),
	}
}

func (f *fakeTokenStore) StoreRefreshToken(_ context.Context, userID uuid.UUID, token string, _ time.Duration) error {
	f.refresh[userID] = token
	return nil
}

func (f *fakeTokenStore) GetRefreshToken(_ context.Context, userID uuid.UUID) (string, error) {
	token, ok := f.refresh[userID]
	if !ok {
		return "", auth.ErrTokenNotFound
	}
	return token, nil
}

func (f *fakeTokenStore) MarkResetTokenUsed(_ context.Context, tokenID string, _ time.Duration) (bool, error) {
	if f.usedReset[tokenID] {
		return false, nil
	}
	f.usedReset[tokenID] = true
	return true, nil
}

// fakeGoogleVerifier returns a scripted profile or error.
type fakeGoogleVerifier struct {
	profile *auth.GoogleProfile
	err     error
}

func (f *fakeGoogleVerifier) Verify(_ context.Context, _ string) (*auth.GoogleProfile, error) {
	return f.profile, f.err
}

// recordingMailer captures the last reset mail instead of sending it.
type recordingMailer struct {
	to    string
	token string
	sent  int
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, token string) error {
	m.to = to
	m.token = token
	m.sent++
	return nil
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		ResetSecret:   "reset-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		ResetTTL:      5 * time.Minute,
	})
}

type authTestDeps struct {
	users   *mockAuthUserRepository
	store   *fakeTokenStore
	google  *fakeGoogleVerifier
	mailer  *recordingMailer
	manager *auth.JWTManager
}

func newAuthService(deps authTestDeps) *service.AuthService {
	if deps.users == nil {
		deps.users = &mockAuthUserRepository{}
	}
	if deps.store == nil {
		deps.store = newFakeTokenStore()
	}
	if deps.google == nil {
		deps.google = &fakeGoogleVerifier{}
	}
	if deps.mailer == nil {
		deps.mailer = &recordingMailer{}
	}
	if deps.manager == nil {
		deps.manager = newTestJWTManager()
	}

	return service.NewAuthService(service.AuthServiceConfig{
		Users:      deps.users,
		Tokens:     deps.manager,
		TokenStore: deps.store,
		Hasher:     auth.NewPasswordHasher(bcrypt.MinCost),
		Google:     deps.google,
		Mailer:     deps.mailer,
		RefreshTTL: 24 * time.Hour,
		ResetTTL:   5 * time.Minute,
	})
}

func hashedUser(t *testing.T, email, password string) *user.User {
	t.Helper()
	hash, err := auth.NewPasswordHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	u, err := user.NewUser("maya", email, "+33600000001", hash)
	require.NoError(t, err)
	return u
}

func TestAuthService_Register(t *testing.T) {
	t.Run("creates user with defaults", func(t *testing.T) {
		var saved *user.User
		users := &mockAuthUserRepository{
			saveFunc: func(_ context.Context, u *user.User) error {
				saved = u
				return nil
			},
		}
		svc := newAuthService(authTestDeps{users: users})

		u, err := svc.Register(context.Background(), service.RegisterInput{
			Username: "maya",
			Email:    "maya@example.com",
			Phone:    "+33600000001",
			Password: "s3cret",
		})

		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, user.RoleUser, u.Role())
		assert.Equal(t, user.DefaultStyle(), u.Style())
		assert.Equal(t, user.DefaultUnlockedStyle(), u.UnlockedStyle())
		assert.NotEqual(t, "s3cret", u.PasswordHash())
		assert.Empty(t, u.Reservations())
		assert.Empty(t, u.Favorites())
	})

	t.Run("duplicate unique field", func(t *testing.T) {
		users := &mockAuthUserRepository{
			existsAnyFunc: func(_ context.Context, _, _, _ string) (bool, error) {
				return true, nil
			},
		}
		svc := newAuthService(authTestDeps{users: users})

		_, err := svc.Register(context.Background(), service.RegisterInput{
			Username: "maya",
			Email:    "maya@example.com",
			Password: "s3cret",
		})

		assert.ErrorIs(t, err, errs.ErrAlreadyExists)
	})

	t.Run("empty password", func(t *testing.T) {
		svc := newAuthService(authTestDeps{})

		_, err := svc.Register(context.Background(), service.RegisterInput{
			Username: "maya",
			Email:    "maya@example.com",
		})

		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Run("issues and stores tokens", func(t *testing.T) {
		u := hashedUser(t, "maya@example.com", "s3cret")
		users := &mockAuthUserRepository{
			findByEmailFunc: func(_ context.Context, _ string) (*user.User, error) {
				return u, nil
			},
		}
		store := newFakeTokenStore()
		svc := newAuthService(authTestDeps{users: users, store: store})

		pair, err := svc.Login(context.Background(), "maya@example.com", "s3cret")

		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, pair.RefreshToken, store.refresh[u.ID()])
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		u := hashedUser(t, "maya@example.com", "s3cret")
		users := &mockAuthUserRepository{
			findByEmailFunc: func(_ context.Context, email string) (*user.User, error) {
				if email == "maya@example.com" {
					return u, nil
				}
				return nil, errs.ErrNotFound
			},
		}
		svc := newAuthService(authTestDeps{users: users})

		_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "s3cret")
		_, wrongErr := svc.Login(context.Background(), "maya@example.com", "wrong")

		assert.ErrorIs(t, unknownErr, errs.ErrUnauthorized)
		assert.Equal(t, unknownErr, wrongErr)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Run("re-issues access token, echoes refresh token", func(t *testing.T) {
		u := hashedUser(t, "maya@example.com", "s3cret")
		users := &mockAuthUserRepository{
			findByEmailFunc: func(_ context.Context, _ string) (*user.User, error) { return u, nil },
			findByIDFunc:    func(_ context.Context, _ uuid.UUID) (*user.User, error) { return u, nil },
		}
		store := newFakeTokenStore()
		svc := newAuthService(authTestDeps{users: users, store: store})

		pair, err := svc.Login(context.Background(), "maya@example.com", "s3cret")
		require.NoError(t, err)

		refreshed, err := svc.Refresh(context.Background(), pair.RefreshToken)

		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
		assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	})

	t.Run("token not matching stored value", func(t *testing.T) {
		u := hashedUser(t, "maya@example.com", "s3cret")
		manager := newTestJWTManager()
		store := newFakeTokenStore()
		store.refresh[u.ID()] = "a previously rotated token"
		users := &mockAuthUserRepository{
			findByIDFunc: func(_ context.Context, _ uuid.UUID) (*user.User, error) { return u, nil },
		}
		svc := newAuthService(authTestDeps{users: users, store: store, manager: manager})

		token, err := manager.IssueRefreshToken(u.ID())
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), token)

		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := newAuthService(authTestDeps{})

		_, err := svc.Refresh(context.Background(), "not a jwt")

		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})
}

func TestAuthService_GoogleLogin(t *testing.T) {
	t.Run("signs in an existing account", func(t *testing.T) {
		u := hashedUser(t, "maya@example.com", "s3cret")
		users := &mockAuthUserRepository{
			findByEmailFunc: func(_ context.Context, _ string) (*user.User, error) { return u, nil },
		}
		google := &fakeGoogleVerifier{profile: &auth.GoogleProfile{Email: "maya@example.com", Name: "Maya"}}
		svc := newAuthService(authTestDeps{users: users, google: google})

		pair, err := svc.GoogleLogin(context.Background(), "id-token")

		require.NoError(t, err)
		assert.Equal(t, u.ID(), pair.User.ID())
	})

	t.Run("creates an account on first sight", func(t *testing.T) {
		var saved *user.User
		users := &mockAuthUserRepository{
			saveFunc: func(_ context.Context, u *user.User) error {
				saved = u
				return nil
			},
		}
		google := &fakeGoogleVerifier{profile: &auth.GoogleProfile{Email: "new@example.com", Name: "Newcomer"}}
		svc := newAuthService(authTestDeps{users: users, google: google})

		pair, err := svc.GoogleLogin(context.Background(), "id-token")

		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "new@example.com", saved.Email())
		assert.Equal(t, "Newcomer", saved.Username())
		assert.NotEmpty(t, saved.PasswordHash())
		assert.NotEmpty(t, pair.AccessToken)
	})

	t.Run("missing display name", func(t *testing.T) {
		google := &fakeGoogleVerifier{profile: &auth.GoogleProfile{Email: "new@example.com"}}
		svc := newAuthService(authTestDeps{google: google})

		_, err := svc.GoogleLogin(context.Background(), "id-token")

		assert.ErrorIs(t, err, errs.ErrAlreadyExists)
	})

	t.Run("invalid token", func(t *testing.T) {
		google := &fakeGoogleVerifier{err: auth.ErrInvalidToken}
		svc := newAuthService(authTestDeps{google: google})

		_, err := svc.GoogleLogin(context.Background(), "id-token")

		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})
}

func TestAuthService_AskResetPassword(t *testing.T) {
	t.Run("unknown email succeeds without mail", func(t *testing.T) {
		mailer := &recordingMailer{}
		svc := newAuthService(authTestDeps{mailer: mailer})

		err := svc.AskResetPassword(context.Background(), "nobody@example.com")

		require.NoError(t, err)
		assert.Zero(t, mailer.sent)
	})

	t.Run("known email gets a token mail", func(t *testing.T) {
		u := hashedUser(t, "maya@example.com", "s3cret")
		users := &mockAuthUserRepository{
			findByEmailFunc: func(_ context.Context, _ string) (*user.User, error) { return u, nil },
		}
		mailer := &recordingMailer{}
		svc := newAuthService(authTestDeps{users: users, mailer: mailer})

		err := svc.AskResetPassword(context.Background(), "maya@example.com")

		require.NoError(t, err)
		assert.Equal(t, 1, mailer.sent)
		assert.Equal(t, "maya@example.com", mailer.to)
		assert.NotEmpty(t, mailer.token)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	t.Run("token is single-use", func(t *testing.T) {
		u := hashedUser(t, "maya@example.com", "s3cret")
		var updatedHash string
		users := &mockAuthUserRepository{
			findByEmailFunc: func(_ context.Context, _ string) (*user.User, error) { return u, nil },
			setPasswordByEmailFunc: func(_ context.Context, email, hash string) error {
				assert.Equal(t, "maya@example.com", email)
				updatedHash = hash
				return nil
			},
		}
		mailer := &recordingMailer{}
		svc := newAuthService(authTestDeps{users: users, mailer: mailer})

		require.NoError(t, svc.AskResetPassword(context.Background(), "maya@example.com"))

		require.NoError(t, svc.ResetPassword(context.Background(), mailer.token, "n3w-pass"))
		assert.NotEmpty(t, updatedHash)
		assert.True(t, auth.NewPasswordHasher(bcrypt.MinCost).Compare(updatedHash, "n3w-pass"))

		err := svc.ResetPassword(context.Background(), mailer.token, "another")
		assert.ErrorIs(t, err, errs.ErrNotAcceptable)
	})

	t.Run("invalid token", func(t *testing.T) {
		svc := newAuthService(authTestDeps{})

		err := svc.ResetPassword(context.Background(), "not a jwt", "n3w-pass")

		assert.ErrorIs(t, err, errs.ErrNotAcceptable)
	})

	t.Run("access token is not a reset token", func(t *testing.T) {
		u := hashedUser(t, "maya@example.com", "s3cret")
		manager := newTestJWTManager()
		svc := newAuthService(authTestDeps{manager: manager})

		token, err := manager.IssueAccessToken(u)
		require.NoError(t, err)

		assert.ErrorIs(t, svc.ResetPassword(context.Background(), token, "n3w-pass"), errs.ErrNotAcceptable)
	})

	t.Run("empty password", func(t *testing.T) {
		svc := newAuthService(authTestDeps{})

		assert.ErrorIs(t, svc.ResetPassword(context.Background(), "token", ""), errs.ErrInvalidInput)
	})
}
