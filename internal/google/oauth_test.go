package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
)

type recordingCallbacks struct {
	token *oauth2.Token
	cause error
}

func (r *recordingCallbacks) SignInSucceeded(_ context.Context, tok *oauth2.Token) error {
	r.token = tok
	return nil
}

func (r *recordingCallbacks) SignInFailed(_ context.Context, cause error) error {
	r.cause = cause
	return errors.New("sign-in failed")
}

func TestNewOAuthConfig(t *testing.T) {
	conf := NewOAuthConfig(OAuthOptions{ClientID: "id", ClientSecret: "secret"})
	assert.Equal(t, DefaultRedirectURL, conf.RedirectURL)
	assert.Contains(t, conf.Scopes, calendar.CalendarEventsScope)

	conf = NewOAuthConfig(OAuthOptions{ClientID: "id", RedirectURL: "http://localhost:8080/cb", CalendarScope: calendar.CalendarScope})
	assert.Equal(t, "http://localhost:8080/cb", conf.RedirectURL)
	assert.Contains(t, conf.Scopes, calendar.CalendarScope)
	assert.NotContains(t, conf.Scopes, calendar.CalendarEventsScope)
}

func TestAuthURL(t *testing.T) {
	_, err := AuthURL(NewOAuthConfig(OAuthOptions{}), "state")
	assert.ErrorIs(t, err, ErrNoClientID)

	raw, err := AuthURL(NewOAuthConfig(OAuthOptions{ClientID: "client-123"}), "xyz")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.new","token_type":"Bearer","refresh_token":"1//r","expires_in":3600}`))
	}))
	defer srv.Close()

	conf := NewOAuthConfig(OAuthOptions{ClientID: "id", ClientSecret: "secret"})
	conf.Endpoint = oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams}

	t.Run("success", func(t *testing.T) {
		cb := &recordingCallbacks{}
		require.NoError(t, Exchange(context.Background(), conf, "good-code", cb))
		require.NotNil(t, cb.token)
		assert.Equal(t, "ya29.new", cb.token.AccessToken)
		assert.Equal(t, "1//r", cb.token.RefreshToken)
		assert.Nil(t, cb.cause)
	})

	t.Run("rejected code", func(t *testing.T) {
		cb := &recordingCallbacks{}
		assert.Error(t, Exchange(context.Background(), conf, "bad-code", cb))
		assert.Nil(t, cb.token)
		assert.Error(t, cb.cause)
	})

	t.Run("empty code", func(t *testing.T) {
		cb := &recordingCallbacks{}
		assert.Error(t, Exchange(context.Background(), conf, "  ", cb))
		assert.Error(t, cb.cause)
	})

	t.Run("no client id", func(t *testing.T) {
		cb := &recordingCallbacks{}
		assert.Error(t, Exchange(context.Background(), NewOAuthConfig(OAuthOptions{}), "good-code", cb))
		assert.ErrorIs(t, cb.cause, ErrNoClientID)
	})
}

func TestHTTPClient(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client, err := HTTPClient(context.Background(), nil, NewStaticTokenProvider("ya29.static"))
	require.NoError(t, err)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "Bearer ya29.static", gotAuth)

	_, err = HTTPClient(context.Background(), nil, NewStaticTokenProvider(""))
	assert.Error(t, err)
}
