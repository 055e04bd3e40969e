package google

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth tokens for Google APIs.
// This abstraction allows different token sources (the signed-in session, a fixed
// token for tests) to back the calendar adapter.
type TokenProvider interface {
	// Token returns the current credential.
	Token(ctx context.Context) (*oauth2.Token, error)

	// HasToken reports whether a usable credential is held.
	HasToken() bool
}

// StaticTokenProvider always returns the same access token.
type StaticTokenProvider struct {
	AccessToken string
}

// NewStaticTokenProvider creates a provider for a fixed bearer token.
func NewStaticTokenProvider(accessToken string) *StaticTokenProvider {
	return &StaticTokenProvider{AccessToken: accessToken}
}

func (p *StaticTokenProvider) Token(_ context.Context) (*oauth2.Token, error) {
	if p.AccessToken == "" {
		return nil, errors.New("no access token")
	}
	return &oauth2.Token{AccessToken: p.AccessToken, TokenType: "Bearer"}, nil
}

func (p *StaticTokenProvider) HasToken() bool {
	return p.AccessToken != ""
}
