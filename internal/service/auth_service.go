// Package service contains the application services: one per bounded area,
// orchestrating domain aggregates, repositories and infrastructure.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	"github.com/unbored-app/unbored/internal/infrastructure/auth"
)

// AuthServiceUserRepository defines the user data access the auth service needs.
// Declared on the consumer side per project guidelines.
type AuthServiceUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	ExistsAny(ctx context.Context, username, email, phone string) (bool, error)
	Save(ctx context.Context, u *user.User) error
	SetPasswordByEmail(ctx context.Context, email, passwordHash string) error
}

// AuthServiceTokenIssuer defines the token operations the auth service needs.
// Declared on the consumer side per project guidelines.
type AuthServiceTokenIssuer interface {
	IssueAccessToken(u *user.User) (string, error)
	IssueRefreshToken(userID uuid.UUID) (string, error)
	IssueResetToken(email string) (token, tokenID string, err error)
	VerifyRefreshToken(token string) (*auth.RefreshClaims, error)
	VerifyResetToken(token string) (*auth.ResetClaims, error)
}

// AuthServiceTokenStore defines the token state operations the auth service needs.
// Declared on the consumer side per project guidelines.
type AuthServiceTokenStore interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)
	MarkResetTokenUsed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

// AuthServicePasswordHasher hashes and verifies credentials.
// Declared on the consumer side per project guidelines.
type AuthServicePasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// AuthServiceMailer sends the password-reset mail.
// Declared on the consumer side per project guidelines.
type AuthServiceMailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *user.User
}

// AuthService implements registration, login, token refresh, Google sign-in
// and the password-reset flow.
type AuthService struct {
	users      AuthServiceUserRepository
	tokens     AuthServiceTokenIssuer
	tokenStore AuthServiceTokenStore
	hasher     AuthServicePasswordHasher
	google     auth.GoogleVerifier
	mailer     AuthServiceMailer
	refreshTTL time.Duration
	resetTTL   time.Duration
	logger     *slog.Logger
}

// AuthServiceConfig contains dependencies for AuthService.
type AuthServiceConfig struct {
	Users      AuthServiceUserRepository
	Tokens     AuthServiceTokenIssuer
	TokenStore AuthServiceTokenStore
	Hasher     AuthServicePasswordHasher
	Google     auth.GoogleVerifier
	Mailer     AuthServiceMailer
	RefreshTTL time.Duration
	ResetTTL   time.Duration
	Logger     *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		users:      cfg.Users,
		tokens:     cfg.Tokens,
		tokenStore: cfg.TokenStore,
		hasher:     cfg.Hasher,
		google:     cfg.Google,
		mailer:     cfg.Mailer,
		refreshTTL: cfg.RefreshTTL,
		resetTTL:   cfg.ResetTTL,
		logger:     logger,
	}
}

// Register creates a user with default role, avatar state and empty
// collections. Any clash on username, email or phone is rejected as a whole.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	if in.Password == "" {
		return nil, errs.ErrInvalidInput
	}

	taken, err := s.users.ExistsAny(ctx, in.Username, in.Email, in.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check unique fields: %w", err)
	}
	if taken {
		return nil, errs.ErrAlreadyExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := user.NewUser(in.Username, in.Email, in.Phone, hash)
	if err != nil {
		return nil, err
	}

	if saveErr := s.users.Save(ctx, u); saveErr != nil {
		return nil, fmt.Errorf("failed to save user: %w", saveErr)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", u.ID().String()),
		slog.String("username", u.Username()),
	)

	return u, nil
}

// Login authenticates by email and password. A missing account and a wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Compare(u.PasswordHash(), password) {
		return nil, errs.ErrUnauthorized
	}

	return s.issueTokens(ctx, u)
}

// Refresh re-issues the access token from a still-valid refresh token. The
// presented token must match the one stored for the user; the refresh token
// itself is echoed back unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}

	userID, err := uuid.ParseUUID(claims.UserID)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}

	stored, err := s.tokenStore.GetRefreshToken(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if stored != refreshToken {
		return nil, errs.ErrUnauthorized
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	accessToken, err := s.tokens.IssueAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         u,
	}, nil
}

// GoogleLogin verifies a Google ID token and signs the holder in, creating an
// account on first sight. Auto-created accounts get a non-guessable
// placeholder credential.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*TokenPair, error) {
	profile, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	if profile.Email == "" || profile.Name == "" {
		return nil, errs.ErrAlreadyExists
	}

	u, err := s.users.FindByEmail(ctx, profile.Email)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		u, err = s.createGoogleUser(ctx, profile)
		if err != nil {
			return nil, err
		}
	}

	return s.issueTokens(ctx, u)
}

// AskResetPassword mails a reset token when the account exists. The outcome is
// success-shaped either way so callers cannot probe which emails are
// registered.
func (s *AuthService) AskResetPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.logger.DebugContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, _, err := s.tokens.IssueResetToken(u.Email())
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	if mailErr := s.mailer.SendPasswordReset(ctx, u.Email(), token); mailErr != nil {
		return fmt.Errorf("failed to send reset mail: %w", mailErr)
	}

	s.logger.InfoContext(ctx, "password reset mail sent",
		slog.String("user_id", u.ID().String()),
	)

	return nil
}

// ResetPassword consumes a reset token and stores the new credential hash.
// Expired, invalid or already-consumed tokens are all rejected the same way.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return errs.ErrInvalidInput
	}

	claims, err := s.tokens.VerifyResetToken(token)
	if err != nil {
		return errs.ErrNotAcceptable
	}

	fresh, err := s.tokenStore.MarkResetTokenUsed(ctx, claims.ID, s.resetTTL)
	if err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}
	if !fresh {
		return errs.ErrNotAcceptable
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if setErr := s.users.SetPasswordByEmail(ctx, claims.Email, hash); setErr != nil {
		return fmt.Errorf("failed to set password: %w", setErr)
	}

	s.logger.InfoContext(ctx, "password reset completed")

	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, u *user.User) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(u.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	if storeErr := s.tokenStore.StoreRefreshToken(ctx, u.ID(), refreshToken, s.refreshTTL); storeErr != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", storeErr)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", u.ID().String()),
		slog.String("username", u.Username()),
	)

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         u,
	}, nil
}

func (s *AuthService) createGoogleUser(ctx context.Context, profile *auth.GoogleProfile) (*user.User, error) {
	// The account is credential-less from the user's point of view. A random
	// placeholder keeps the hash slot filled without being guessable.
	placeholder, err := s.hasher.Hash(uuid.NewUUID().String() + uuid.NewUUID().String())
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder credential: %w", err)
	}

	u, err := user.NewUser(profile.Name, profile.Email, "", placeholder)
	if err != nil {
		return nil, err
	}

	if saveErr := s.users.Save(ctx, u); saveErr != nil {
		return nil, fmt.Errorf("failed to save user: %w", saveErr)
	}

	s.logger.InfoContext(ctx, "user created from Google sign-in",
		slog.String("user_id", u.ID().String()),
	)

	return u, nil
}
