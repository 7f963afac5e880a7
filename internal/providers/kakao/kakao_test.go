package kakao

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

func newFakeKakao(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"authorization code not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"kat","refresh_token":"krt","token_type":"bearer","expires_in":21599,"scope":"account_email profile_nickname"}`))
	})
	mux.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer kat" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":123,"kakao_account":{"email":"a@b.com","profile":{"nickname":"Kim"}}}`))
	})
	mux.HandleFunc("/v1/user/access_token_info", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer kat" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":123,"expires_in":7199,"app_id":1}`))
	})
	return httptest.NewServer(mux)
}

func newTestStrategy(base string) *Strategy {
	return New(Config{
		ClientID:     "kakao-client",
		ClientSecret: "kakao-secret",
		RedirectURI:  "https://app.example/auth/kakao/callback",
		Scopes:       []string{"profile_nickname", "account_email"},
		TokenURL:     base + "/oauth/token",
		UserInfoURL:  base + "/v2/user/me",
		ValidateURL:  base + "/v1/user/access_token_info",
	})
}

func TestAuthURL(t *testing.T) {
	s := newTestStrategy("http://unused")
	raw := s.AuthURL("S")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "kauth.kakao.com", u.Host)
	assert.Equal(t, "S", u.Query().Get("state"))
	assert.Equal(t, "kakao-client", u.Query().Get("client_id"))
	assert.NotContains(t, raw, "kakao-secret")
}

func TestExchangeAndProfile(t *testing.T) {
	srv := newFakeKakao(t)
	defer srv.Close()
	s := newTestStrategy(srv.URL)

	ts, err := s.Exchange(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "kat", ts.AccessToken)

	p, err := s.Profile(context.Background(), ts)
	require.NoError(t, err)
	assert.Equal(t, "123", p.ExternalID)
	assert.Equal(t, "a@b.com", p.Email)
	assert.Equal(t, "Kim", p.DisplayName)
	assert.Equal(t, providers.Kakao, p.Provider)
}

func TestExchange_Rejected(t *testing.T) {
	srv := newFakeKakao(t)
	defer srv.Close()

	_, err := newTestStrategy(srv.URL).Exchange(context.Background(), "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrUpstreamAuth)
	assert.NotContains(t, err.Error(), "authorization code not found")
}

func TestValidate(t *testing.T) {
	srv := newFakeKakao(t)
	defer srv.Close()
	s := newTestStrategy(srv.URL)

	assert.True(t, s.Validate(context.Background(), "kat"))
	assert.False(t, s.Validate(context.Background(), "expired"))
	assert.False(t, s.Validate(context.Background(), ""))
}
