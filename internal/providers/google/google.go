// Package google implements the Google OAuth 2.0 / OpenID Connect strategy.
package google

import (
	"context"
	"net/url"

	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/providers/oauthx"
)

const (
	DefaultAuthURL      = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenURL     = "https://oauth2.googleapis.com/token"
	DefaultUserInfoURL  = "https://www.googleapis.com/oauth2/v3/userinfo"
	DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

// DefaultScopes are requested when the config sets none.
var DefaultScopes = []string{"openid", "email", "profile"}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	TokenInfoURL string
}

type Strategy struct {
	client       *oauthx.Client
	userInfoURL  string
	tokenInfoURL string
}

var _ providers.Strategy = (*Strategy)(nil)

func New(cfg Config, opts ...oauthx.Option) *Strategy {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &Strategy{
		client: oauthx.New(oauthx.Config{
			Provider:     providers.Google,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			AuthURL:      oauthx.OrDefault(cfg.AuthURL, DefaultAuthURL),
			TokenURL:     oauthx.OrDefault(cfg.TokenURL, DefaultTokenURL),
			Scopes:       scopes,
		}, opts...),
		userInfoURL:  oauthx.OrDefault(cfg.UserInfoURL, DefaultUserInfoURL),
		tokenInfoURL: oauthx.OrDefault(cfg.TokenInfoURL, DefaultTokenInfoURL),
	}
}

func (s *Strategy) Name() providers.Provider { return providers.Google }

// AuthURL asks for offline access so Google returns a refresh token.
func (s *Strategy) AuthURL(state string) string {
	return s.client.AuthURL(state, url.Values{
		"access_type": {"offline"},
		"prompt":      {"consent"},
	})
}

func (s *Strategy) Exchange(ctx context.Context, code string) (*providers.TokenSet, error) {
	return s.client.Exchange(ctx, code)
}

func (s *Strategy) Profile(ctx context.Context, tokens *providers.TokenSet) (*providers.Profile, error) {
	body, err := s.client.GetJSON(ctx, "profile", s.userInfoURL, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	return providers.Normalize(providers.Google, body)
}

func (s *Strategy) Refresh(ctx context.Context, refreshToken string) (*providers.TokenSet, error) {
	return s.client.Refresh(ctx, refreshToken)
}

// Validate calls tokeninfo with the token as a query parameter.
func (s *Strategy) Validate(ctx context.Context, accessToken string) bool {
	if accessToken == "" {
		return false
	}
	u, err := url.Parse(s.tokenInfoURL)
	if err != nil {
		return false
	}
	q := u.Query()
	q.Set("access_token", accessToken)
	u.RawQuery = q.Encode()
	_, err = s.client.GetJSON(ctx, "validate", u.String(), "")
	return err == nil
}
