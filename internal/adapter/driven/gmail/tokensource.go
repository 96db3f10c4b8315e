package gmail

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

// storeTokenSource adapts the token store to oauth2.TokenSource so the HTTP
// transport can attach bearer tokens. Refresh and persistence happen inside
// the store; this only converts the loaded credential.
type storeTokenSource struct {
	ctx    context.Context
	tokens driven.TokenStore
}

func newStoreTokenSource(ctx context.Context, tokens driven.TokenStore) *storeTokenSource {
	return &storeTokenSource{ctx: ctx, tokens: tokens}
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	cred, err := s.tokens.Load(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   cred.TokenType,
		Expiry:      cred.Expiry,
	}, nil
}
