package apple

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/socialgate/internal/providers"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "com.example.web"
	testTeamID   = "TEAM123456"
	testKeyID    = "KEY1234567"
	testKid      = "apple-kid-1"
)

type fakeApple struct {
	srv        *httptest.Server
	ecKey      *ecdsa.PrivateKey
	rsaKey     *rsa.PrivateKey
	jwksHits   int32
	assertions []string
}

func newFakeApple(t *testing.T) *fakeApple {
	t.Helper()
	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	rk, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f := &fakeApple{ecKey: ec, rsaKey: rk}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.assertions = append(f.assertions, r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "aat",
			"refresh_token": "art",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"id_token":      f.idToken(t, f.srv.URL, testClientID, time.Now().Add(time.Hour)),
		})
	})
	mux.HandleFunc("/auth/keys", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.jwksHits, 1)
		pub := f.rsaKey.PublicKey
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA", "kid": testKid, "use": "sig", "alg": "RS256",
			"n": base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e": base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}}})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeApple) idToken(t *testing.T, iss, aud string, exp time.Time) string {
	t.Helper()
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, jwtv5.MapClaims{
		"iss":            iss,
		"aud":            aud,
		"sub":            "001234.abcdef",
		"email":          "xyz@privaterelay.appleid.com",
		"email_verified": "true",
		"iat":            time.Now().Unix(),
		"exp":            exp.Unix(),
	})
	tk.Header["kid"] = testKid
	s, err := tk.SignedString(f.rsaKey)
	require.NoError(t, err)
	return s
}

func (f *fakeApple) privateKeyPEM(t *testing.T) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(f.ecKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func newTestStrategy(t *testing.T, f *fakeApple) *Strategy {
	t.Helper()
	s, err := New(Config{
		ClientID:    testClientID,
		TeamID:      testTeamID,
		KeyID:       testKeyID,
		PrivateKey:  strings.ReplaceAll(f.privateKeyPEM(t), "\n", `\n`),
		RedirectURI: "https://app.example/auth/apple/callback",
		TokenURL:    f.srv.URL + "/auth/token",
		KeysURL:     f.srv.URL + "/auth/keys",
		Issuer:      f.srv.URL,
	})
	require.NoError(t, err)
	return s
}

func TestNew_RejectsBadKey(t *testing.T) {
	_, err := New(Config{ClientID: "a", TeamID: "b", KeyID: "c", PrivateKey: "garbage"})
	assert.Error(t, err)

	_, err = New(Config{PrivateKey: "garbage"})
	assert.Error(t, err)
}

func TestAuthURL(t *testing.T) {
	s := newTestStrategy(t, newFakeApple(t))
	raw := s.AuthURL("st")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "appleid.apple.com", u.Host)
	assert.Equal(t, "form_post", u.Query().Get("response_mode"))
	assert.Equal(t, "name email", u.Query().Get("scope"))
	assert.Equal(t, "st", u.Query().Get("state"))
	assert.NotContains(t, raw, "PRIVATE")
}

func TestExchange_SignsFreshAssertion(t *testing.T) {
	f := newFakeApple(t)
	s := newTestStrategy(t, f)
	ctx := context.Background()

	_, err := s.Exchange(ctx, "code-1")
	require.NoError(t, err)
	_, err = s.Refresh(ctx, "art")
	require.NoError(t, err)
	require.Len(t, f.assertions, 2)

	claims := jwtv5.MapClaims{}
	tok, err := jwtv5.ParseWithClaims(f.assertions[0], claims, func(*jwtv5.Token) (any, error) {
		return &f.ecKey.PublicKey, nil
	}, jwtv5.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)

	assert.Equal(t, testKeyID, tok.Header["kid"])
	assert.Equal(t, testTeamID, claims["iss"])
	assert.Equal(t, testClientID, claims["sub"])
	assert.Equal(t, Audience, claims["aud"])
	iat, _ := claims.GetIssuedAt()
	exp, _ := claims.GetExpirationTime()
	assert.LessOrEqual(t, exp.Sub(iat.Time), time.Hour)
}

func TestProfile_FromIDToken(t *testing.T) {
	f := newFakeApple(t)
	s := newTestStrategy(t, f)

	ts, err := s.Exchange(context.Background(), "code")
	require.NoError(t, err)
	require.NotEmpty(t, ts.IDToken)

	hitsBefore := atomic.LoadInt32(&f.jwksHits)
	p, err := s.Profile(context.Background(), ts)
	require.NoError(t, err)
	assert.Equal(t, "001234.abcdef", p.ExternalID)
	assert.Equal(t, "xyz@privaterelay.appleid.com", p.Email)
	assert.Empty(t, p.DisplayName)
	assert.Empty(t, p.PictureURL)
	assert.Equal(t, providers.Apple, p.Provider)
	assert.Equal(t, hitsBefore, atomic.LoadInt32(&f.jwksHits), "profile must not hit the network")

	_, err = s.Profile(context.Background(), &providers.TokenSet{AccessToken: "aat"})
	assert.ErrorIs(t, err, providers.ErrUpstreamAuth)
}

func TestValidate(t *testing.T) {
	f := newFakeApple(t)
	s := newTestStrategy(t, f)
	ctx := context.Background()

	good := f.idToken(t, f.srv.URL, testClientID, time.Now().Add(time.Hour))
	assert.True(t, s.Validate(ctx, good))
	assert.True(t, s.Validate(ctx, good))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.jwksHits), "keys are cached")

	assert.False(t, s.Validate(ctx, f.idToken(t, f.srv.URL, "other.client", time.Now().Add(time.Hour))))
	assert.False(t, s.Validate(ctx, f.idToken(t, "https://evil.example", testClientID, time.Now().Add(time.Hour))))
	assert.False(t, s.Validate(ctx, f.idToken(t, f.srv.URL, testClientID, time.Now().Add(-time.Hour))))
	assert.False(t, s.Validate(ctx, "not-a-jwt"))
}
