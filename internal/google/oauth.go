package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultRedirectURL is used when no redirect URL is configured.
const DefaultRedirectURL = "http://localhost"

// OAuthOptions are the client credentials used for sign-in.
type OAuthOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// CalendarScope overrides the calendar scope in DefaultOAuthScopes.
	CalendarScope string
}

// ErrNoClientID is returned when sign-in is attempted without a client ID.
var ErrNoClientID = errors.New("google client ID is not configured (set GOOGLE_CLIENT_ID)")

// NewOAuthConfig returns the OAuth2 configuration for the Google Calendar API.
func NewOAuthConfig(opts OAuthOptions) *oauth2.Config {
	redirect := opts.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       ScopesWithCalendar(opts.CalendarScope),
	}
}

// AuthURL returns the URL the user visits to authorize the application.
func AuthURL(conf *oauth2.Config, state string) (string, error) {
	if conf == nil || conf.ClientID == "" {
		return "", ErrNoClientID
	}
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// SignInCallbacks receive the outcome of a sign-in attempt.
type SignInCallbacks interface {
	SignInSucceeded(ctx context.Context, tok *oauth2.Token) error
	SignInFailed(ctx context.Context, cause error) error
}

// Exchange trades an authorization code for a token and reports the result to cb.
// It returns the error produced by the callback that ran.
func Exchange(ctx context.Context, conf *oauth2.Config, code string, cb SignInCallbacks) error {
	code = strings.TrimSpace(code)
	switch {
	case conf == nil || conf.ClientID == "":
		return cb.SignInFailed(ctx, ErrNoClientID)
	case code == "":
		return cb.SignInFailed(ctx, errors.New("authorization code is empty"))
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return cb.SignInFailed(ctx, fmt.Errorf("failed to exchange auth code: %w", err))
	}
	return cb.SignInSucceeded(ctx, tok)
}

// HTTPClient returns an HTTP client that authenticates with the provider's token.
// When conf carries client credentials the token is refreshed on expiry.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func HTTPClient(ctx context.Context, conf *oauth2.Config, provider TokenProvider) (*http.Client, error) {
	tok, err := provider.Token(ctx)
	if err != nil {
		return nil, err
	}

	var ts oauth2.TokenSource
	if conf != nil && conf.ClientID != "" && tok.RefreshToken != "" {
		ts = conf.TokenSource(ctx, tok)
	} else {
		ts = oauth2.StaticTokenSource(tok)
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   &http.Transport{ForceAttemptHTTP2: false},
		},
	}, nil
}
