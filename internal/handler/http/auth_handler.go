package httphandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/infrastructure/httpserver"
	"github.com/unbored-app/unbored/internal/service"
)

// AuthService defines the interface for authentication operations.
// Declared on the consumer side per project guidelines.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*user.User, error)
	Login(ctx context.Context, email, password string) (*service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	GoogleLogin(ctx context.Context, idToken string) (*service.TokenPair, error)
	AskResetPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries a Google ID token.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// AskResetRequest asks for a password-reset mail.
type AskResetRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest confirms a password reset.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// TokenResponse carries issued tokens and the signed-in profile.
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         ProfileResponse `json:"user"`
}

// AuthHandler handles authentication HTTP requests.
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes registers auth routes with the router. All of them are
// public; refresh authenticates itself via the bearer refresh token rather
// than an access token.
func (h *AuthHandler) RegisterRoutes(r *httpserver.Router) {
	r.Public().POST("/auth/register", h.Register)
	r.Public().POST("/auth/login", h.Login)
	r.Public().POST("/auth/google", h.GoogleLogin)
	r.Public().POST("/auth/reset", h.AskResetPassword)
	r.Public().PUT("/auth/reset", h.ResetPassword)
	r.Public().GET("/auth/refresh", h.Refresh)
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	u, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, ToProfileResponse(u))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	pair, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, toTokenResponse(pair))
}

// Refresh handles GET /api/v1/auth/refresh. The refresh token is presented as
// a bearer token; the response carries a fresh access token and the unchanged
// refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return httpserver.RespondErrorWithCode(
			c, http.StatusUnauthorized, "UNAUTHORIZED", "refresh token required")
	}

	pair, err := h.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, toTokenResponse(pair))
}

// GoogleLogin handles POST /api/v1/auth/google.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req GoogleLoginRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	pair, err := h.authService.GoogleLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, toTokenResponse(pair))
}

// AskResetPassword handles POST /api/v1/auth/reset. The response does not
// reveal whether the email is registered.
func (h *AuthHandler) AskResetPassword(c echo.Context) error {
	var req AskResetRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	if err := h.authService.AskResetPassword(c.Request().Context(), req.Email); err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, MessageResponse{
		Message: "If the email is registered, a reset link has been sent",
	})
}

// ResetPassword handles PUT /api/v1/auth/reset.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondBindError(c)
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, MessageResponse{Message: "Password updated"})
}

func toTokenResponse(pair *service.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         ToProfileResponse(pair.User),
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
