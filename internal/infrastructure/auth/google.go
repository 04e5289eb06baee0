package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleProfile is the subset of a verified Google ID token used for sign-in.
type GoogleProfile struct {
	Email string
	Name  string
}

// GoogleVerifier validates Google ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleProfile, error)
}

// GoogleIDTokenVerifier implements GoogleVerifier against Google's token
// endpoint.
type GoogleIDTokenVerifier struct {
	clientID string
}

// NewGoogleIDTokenVerifier creates a verifier bound to the OAuth client id.
func NewGoogleIDTokenVerifier(clientID string) *GoogleIDTokenVerifier {
	return &GoogleIDTokenVerifier{clientID: clientID}
}

// Verify validates the token signature, audience and expiry, and extracts the
// profile claims.
func (v *GoogleIDTokenVerifier) Verify(ctx context.Context, idToken string) (*GoogleProfile, error) {
	payload, err := validateGoogleToken(ctx, idToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	profile := &GoogleProfile{}
	if email, ok := payload.Claims["email"].(string); ok {
		profile.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		profile.Name = name
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: token carries no email claim", ErrInvalidToken)
	}

	return profile, nil
}

func validateGoogleToken(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
	return idtoken.Validate(ctx, token, audience)
}
