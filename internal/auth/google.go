// Package auth carries the federated-identity verifier. The verifier
// is constructed explicitly with its expected audience and injected
// into the auth service; there is no package-level client.
package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// Identity is the verified payload of a federated identity token.
type Identity struct {
	Email      string
	GivenName  string
	FamilyName string
}

// GoogleVerifier validates Google-issued ID tokens against a fixed
// OAuth client id (the token audience).
type GoogleVerifier struct {
	audience string
}

func NewGoogleVerifier(clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, fmt.Errorf("google client id is required")
	}
	return &GoogleVerifier{audience: clientID}, nil
}

// Verify checks the token's signature and audience and extracts the
// profile claims.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.audience)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	id := &Identity{}
	if email, ok := payload.Claims["email"].(string); ok {
		id.Email = email
	}
	if given, ok := payload.Claims["given_name"].(string); ok {
		id.GivenName = given
	}
	if family, ok := payload.Claims["family_name"].(string); ok {
		id.FamilyName = family
	}

	if id.Email == "" {
		return nil, fmt.Errorf("id token carries no email claim")
	}

	return id, nil
}
