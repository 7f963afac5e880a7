// Package naver implements the Naver Login strategy.
package naver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/providers/oauthx"
)

const (
	DefaultAuthURL    = "https://nid.naver.com/oauth2.0/authorize"
	DefaultTokenURL   = "https://nid.naver.com/oauth2.0/token"
	DefaultProfileURL = "https://openapi.naver.com/v1/nid/me"

	resultOK = "00"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthURL    string
	TokenURL   string
	ProfileURL string
}

type Strategy struct {
	client     *oauthx.Client
	profileURL string
}

var _ providers.Strategy = (*Strategy)(nil)

func New(cfg Config, opts ...oauthx.Option) *Strategy {
	return &Strategy{
		client: oauthx.New(oauthx.Config{
			Provider:     providers.Naver,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			AuthURL:      oauthx.OrDefault(cfg.AuthURL, DefaultAuthURL),
			TokenURL:     oauthx.OrDefault(cfg.TokenURL, DefaultTokenURL),
		}, opts...),
		profileURL: oauthx.OrDefault(cfg.ProfileURL, DefaultProfileURL),
	}
}

func (s *Strategy) Name() providers.Provider { return providers.Naver }

func (s *Strategy) AuthURL(state string) string { return s.client.AuthURL(state, nil) }

func (s *Strategy) Exchange(ctx context.Context, code string) (*providers.TokenSet, error) {
	return s.client.Exchange(ctx, code)
}

// Profile fetches /v1/nid/me. Naver answers 200 with resultcode != "00" on
// some failures, so the envelope is checked before normalizing.
func (s *Strategy) Profile(ctx context.Context, tokens *providers.TokenSet) (*providers.Profile, error) {
	body, err := s.client.GetJSON(ctx, "profile", s.profileURL, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	var env struct {
		ResultCode string `json:"resultcode"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: naver profile: malformed response", providers.ErrUpstreamAuth)
	}
	if env.ResultCode != resultOK {
		return nil, fmt.Errorf("%w: naver profile: resultcode %s", providers.ErrUpstreamAuth, env.ResultCode)
	}
	return providers.Normalize(providers.Naver, body)
}

func (s *Strategy) Refresh(ctx context.Context, refreshToken string) (*providers.TokenSet, error) {
	return s.client.Refresh(ctx, refreshToken)
}

// Validate has no dedicated endpoint on Naver; a successful profile read is
// the check.
func (s *Strategy) Validate(ctx context.Context, accessToken string) bool {
	if accessToken == "" {
		return false
	}
	_, err := s.Profile(ctx, &providers.TokenSet{AccessToken: accessToken})
	return err == nil
}
