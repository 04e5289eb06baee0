// Package auth provides token issuance, verification and credential hashing.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	userdomain "github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
)

// JWT errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongPurpose = errors.New("token issued for a different purpose")
)

const resetPurpose = "password_reset"

// JWTConfig contains signing secrets and lifetimes for every token kind.
// Each kind is signed with its own secret so tokens are not interchangeable.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	ResetSecret   string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// TokenProfile is the public profile snapshot embedded in access tokens.
// Credentials, avatar state and activity collections are never embedded.
type TokenProfile struct {
	Phone        string     `json:"phone,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Birthdate    *time.Time `json:"birthdate,omitempty"`
	Description  string     `json:"description,omitempty"`
	Preferences  []string   `json:"preferences,omitempty"`
	ProfilePhoto string     `json:"profile_photo,omitempty"`
}

// AccessClaims are the claims carried by access tokens.
type AccessClaims struct {
	UserID   string       `json:"user_id"`
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Role     string       `json:"role"`
	Profile  TokenProfile `json:"profile"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims carried by refresh tokens.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ResetClaims are the claims carried by password-reset tokens.
type ResetClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies the three token kinds.
type JWTManager struct {
	cfg JWTConfig
}

// NewJWTManager creates a manager from the given config.
func NewJWTManager(cfg JWTConfig) *JWTManager {
	return &JWTManager{cfg: cfg}
}

// IssueAccessToken signs an access token embedding the user's public profile.
func (m *JWTManager) IssueAccessToken(u *userdomain.User) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		UserID:   u.ID().String(),
		Username: u.Username(),
		Email:    u.Email(),
		Role:     string(u.Role()),
		Profile: TokenProfile{
			Phone:        u.Phone(),
			Gender:       u.Gender(),
			Birthdate:    u.Birthdate(),
			Description:  u.Description(),
			Preferences:  u.Preferences(),
			ProfilePhoto: u.ProfilePhoto(),
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.AccessTTL)),
			ID:        uuid.NewUUID().String(),
		},
	}

	return signToken(claims, m.cfg.AccessSecret)
}

// IssueRefreshToken signs a long-lived refresh token for the user.
func (m *JWTManager) IssueRefreshToken(userID uuid.UUID) (string, error) {
	now := time.Now().UTC()
	claims := RefreshClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.RefreshTTL)),
			ID:        uuid.NewUUID().String(),
		},
	}

	return signToken(claims, m.cfg.RefreshSecret)
}

// IssueResetToken signs a short-lived password-reset token for the email.
// The returned token ID is used to enforce single use.
func (m *JWTManager) IssueResetToken(email string) (token, tokenID string, err error) {
	now := time.Now().UTC()
	tokenID = uuid.NewUUID().String()
	claims := ResetClaims{
		Email:   email,
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.ResetTTL)),
			ID:        tokenID,
		},
	}

	token, err = signToken(claims, m.cfg.ResetSecret)
	return token, tokenID, err
}

// VerifyAccessToken parses and validates an access token.
func (m *JWTManager) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parseToken(token, claims, m.cfg.AccessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token.
func (m *JWTManager) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parseToken(token, claims, m.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyResetToken parses and validates a password-reset token, including its
// purpose claim.
func (m *JWTManager) VerifyResetToken(token string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := parseToken(token, claims, m.cfg.ResetSecret); err != nil {
		return nil, err
	}
	if claims.Purpose != resetPurpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

func signToken(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func parseToken(token string, claims jwt.Claims, secret string) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
