package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/storage"
)

// CredentialKey is the storage key the credential is persisted under.
const CredentialKey = "googleToken"

// State is the sign-in state of a Session.
type State int

const (
	Unauthenticated State = iota
	Authenticated
	AuthFailed
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case AuthFailed:
		return "auth_failed"
	default:
		return "unauthenticated"
	}
}

// AuthError reports a failed sign-in.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sign-in failed: %s: %v", e.Reason, e.Err)
	}
	return "sign-in failed: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Session holds the sign-in state and the bearer credential.
type Session struct {
	mu      sync.RWMutex
	state   State
	token   *oauth2.Token
	lastErr error

	backend storage.Backend
	logger  *slog.Logger
}

// New creates an Unauthenticated session. backend may be nil, in which case the
// credential is kept in memory only.
func New(backend storage.Backend, logger *slog.Logger) *Session {
	return &Session{
		backend: backend,
		logger:  logging.WithService(logging.OrDiscard(logger), "session"),
	}
}

// Restore loads a previously persisted credential. A missing or unreadable
// credential leaves the session Unauthenticated.
func (s *Session) Restore(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	data, err := s.backend.Get(ctx, CredentialKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to restore credential: %w", err)
	}

	tok, err := decodeToken(data)
	if err != nil {
		s.logger.Warn("ignoring unreadable stored credential", logging.Err(err))
		return nil
	}

	s.mu.Lock()
	s.state = Authenticated
	s.token = tok
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Debug("restored credential", slog.String("token", logging.SanitizeToken(tok.AccessToken)))
	return nil
}

// SignInSucceeded captures tok and moves to Authenticated. The returned error
// reports a failed write of the credential; the state change is kept.
func (s *Session) SignInSucceeded(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return s.SignInFailed(ctx, errors.New("empty credential"))
	}

	s.mu.Lock()
	s.state = Authenticated
	s.token = cloneToken(tok)
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info("signed in",
		logging.State(Authenticated),
		slog.String("token", logging.SanitizeToken(tok.AccessToken)))

	if s.backend == nil {
		return nil
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := s.backend.Put(ctx, CredentialKey, data); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// SignInFailed clears the credential, moves to AuthFailed and returns the
// resulting *AuthError.
func (s *Session) SignInFailed(ctx context.Context, cause error) error {
	authErr := &AuthError{Reason: "authentication failed", Err: cause}

	s.mu.Lock()
	s.state = AuthFailed
	s.token = nil
	s.lastErr = authErr
	s.mu.Unlock()

	s.logger.Warn("sign-in failed", logging.State(AuthFailed), logging.Err(cause))
	s.forget(ctx)
	return authErr
}

// SignOut clears the credential and returns to Unauthenticated.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.state = Unauthenticated
	s.token = nil
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info("signed out")
	if s.backend == nil {
		return nil
	}
	if err := s.backend.Delete(ctx, CredentialKey); err != nil {
		return fmt.Errorf("failed to remove stored credential: %w", err)
	}
	return nil
}

func (s *Session) forget(ctx context.Context) {
	if s.backend == nil {
		return
	}
	if err := s.backend.Delete(ctx, CredentialKey); err != nil {
		s.logger.Warn("failed to remove stored credential", logging.Err(err))
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether the session is Authenticated with a non-empty credential.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Authenticated && s.token != nil && strings.TrimSpace(s.token.AccessToken) != ""
}

// HasToken is IsAuthenticated under the google.TokenProvider name.
func (s *Session) HasToken() bool {
	return s.IsAuthenticated()
}

// Token returns a copy of the current credential.
func (s *Session) Token(_ context.Context) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated || s.token == nil {
		return nil, fmt.Errorf("no credential: session is %s", s.state)
	}
	return cloneToken(s.token), nil
}

// LastError returns the *AuthError of the most recent failed sign-in, if the
// session is still AuthFailed.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func decodeToken(data []byte) (*oauth2.Token, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, errors.New("empty credential")
	}
	// A bare string is an access token saved by an older client.
	if !strings.HasPrefix(trimmed, "{") {
		return &oauth2.Token{AccessToken: trimmed, TokenType: "Bearer"}, nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, errors.New("credential has no access token")
	}
	return &tok, nil
}

func cloneToken(tok *oauth2.Token) *oauth2.Token {
	c := *tok
	return &c
}
