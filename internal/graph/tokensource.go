package graph

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSourceAdapter adapts a TokenProvider to oauth2.TokenSource so the
// provider can back any client built with oauth2.NewClient.
type TokenSourceAdapter struct {
	provider TokenProvider
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource from a TokenProvider. ctx is
// used for every Token call.
func NewTokenSource(ctx context.Context, p TokenProvider) oauth2.TokenSource {
	if ctx == nil {
		ctx = context.Background()
	}
	return &TokenSourceAdapter{provider: p, ctx: ctx}
}

// Token implements oauth2.TokenSource.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.AccessToken(t.ctx)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}
