package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeNaver(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2.0/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			_, _ = w.Write([]byte(`{"access_token":"nat","refresh_token":"nrt","token_type":"bearer","expires_in":"3600"}`))
		case "refresh_token":
			_, _ = w.Write([]byte(`{"access_token":"nat2","token_type":"bearer","expires_in":"3600"}`))
		}
	})
	mux.HandleFunc("/v1/nid/me", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer nat", "Bearer nat2":
			_, _ = w.Write([]byte(`{"resultcode":"00","message":"success","response":{"id":"nv-9","email":"n@naver.com","name":"Park"}}`))
		default:
			_, _ = w.Write([]byte(`{"resultcode":"024","message":"Authentication failed"}`))
		}
	})
	return httptest.NewServer(mux)
}

func newTestStrategy(base string) *Strategy {
	return New(Config{
		ClientID:     "naver-client",
		ClientSecret: "naver-secret",
		RedirectURI:  "https://app.example/auth/naver/callback",
		TokenURL:     base + "/oauth2.0/token",
		ProfileURL:   base + "/v1/nid/me",
	})
}

func TestAuthURL(t *testing.T) {
	raw := newTestStrategy("http://unused").AuthURL("state-x")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "nid.naver.com", u.Host)
	assert.Equal(t, "state-x", u.Query().Get("state"))
	assert.NotContains(t, raw, "naver-secret")
}

func TestFlow(t *testing.T) {
	srv := newFakeNaver(t)
	defer srv.Close()
	s := newTestStrategy(srv.URL)
	ctx := context.Background()

	ts, err := s.Exchange(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, "nrt", ts.RefreshToken)
	assert.Equal(t, 3600, ts.ExpiresIn)

	p, err := s.Profile(ctx, ts)
	require.NoError(t, err)
	assert.Equal(t, "nv-9", p.ExternalID)
	assert.Equal(t, "Park", p.DisplayName)

	refreshed, err := s.Refresh(ctx, "nrt")
	require.NoError(t, err)
	assert.Equal(t, "nat2", refreshed.AccessToken)
	assert.Equal(t, "nrt", refreshed.RefreshToken)

	assert.True(t, s.Validate(ctx, "nat2"))
}

func TestProfile_ResultCodeFailure(t *testing.T) {
	srv := newFakeNaver(t)
	defer srv.Close()
	s := newTestStrategy(srv.URL)

	_, err := s.Profile(context.Background(), &providers.TokenSet{AccessToken: "revoked"})
	assert.ErrorIs(t, err, providers.ErrUpstreamAuth)
	assert.False(t, s.Validate(context.Background(), "revoked"))
}
