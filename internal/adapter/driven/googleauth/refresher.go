// Package googleauth implements the OAuth2 refresh collaborator against
// Google's token endpoint. The interactive authorization-code flow that mints
// the initial credential is outside this package; it only renews an existing
// refresh token.
package googleauth

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenRefresher = (*Refresher)(nil)

// Refresher exchanges refresh tokens for renewed access tokens using the
// OAuth2 client configuration downloaded from the Google console.
type Refresher struct {
	cfg *oauth2.Config
}

// NewRefresher wraps an existing oauth2.Config. Intended for tests, which
// point the endpoint at an httptest server.
func NewRefresher(cfg *oauth2.Config) *Refresher {
	return &Refresher{cfg: cfg}
}

// NewRefresherFromClientFile reads the OAuth client file (the
// credentials.json of a "Desktop app" client) and builds a Refresher
// requesting the given scopes.
func NewRefresherFromClientFile(path string, scopes []string) (*Refresher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client file: %w", err)
	}
	return &Refresher{cfg: cfg}, nil
}

// Refresh trades cred's refresh token for a renewed access token. Extension
// fields are carried over unchanged; the token endpoint only speaks for the
// fields it mints.
func (r *Refresher) Refresh(ctx context.Context, cred *model.Credential) (*model.Credential, error) {
	seed := &oauth2.Token{RefreshToken: cred.RefreshToken}
	tok, err := r.cfg.TokenSource(ctx, seed).Token()
	if err != nil {
		return nil, fmt.Errorf("oauth2 token endpoint: %w", err)
	}

	out := cred.Clone()
	out.AccessToken = tok.AccessToken
	out.TokenType = tok.TokenType
	out.Expiry = tok.Expiry
	if tok.RefreshToken != "" {
		out.RefreshToken = tok.RefreshToken
	}
	return out, nil
}
