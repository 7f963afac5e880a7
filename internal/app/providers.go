package app

import (
	"fmt"

	"github.com/dropDatabas3/socialgate/internal/config"
	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/providers/apple"
	"github.com/dropDatabas3/socialgate/internal/providers/google"
	"github.com/dropDatabas3/socialgate/internal/providers/kakao"
	"github.com/dropDatabas3/socialgate/internal/providers/naver"
	"github.com/dropDatabas3/socialgate/internal/providers/oauthx"
	"golang.org/x/time/rate"
)

// buildRegistry instantiates a strategy per enabled provider. All strategies
// share one outbound HTTP client.
func buildRegistry(cfg *config.Config) (*providers.Registry, error) {
	hc := oauthx.NewHTTPClient(config.MustDuration(cfg.Auth.HTTPTimeout))
	// each provider gets its own budget
	opts := func() []oauthx.Option {
		o := []oauthx.Option{oauthx.WithHTTPClient(hc)}
		if cfg.Auth.ProviderRPS > 0 {
			o = append(o, oauthx.WithThrottle(rate.NewLimiter(rate.Limit(cfg.Auth.ProviderRPS), cfg.Auth.ProviderBurst)))
		}
		return o
	}
	p := cfg.Providers

	var strategies []providers.Strategy
	if p.Kakao.IsEnabled() {
		strategies = append(strategies, kakao.New(kakao.Config{
			ClientID:     p.Kakao.ClientID,
			ClientSecret: p.Kakao.ClientSecret,
			RedirectURI:  p.Kakao.RedirectURI,
			Scopes:       p.Kakao.Scopes,
			AuthURL:      p.Kakao.AuthURL,
			TokenURL:     p.Kakao.TokenURL,
			UserInfoURL:  p.Kakao.UserInfoURL,
			ValidateURL:  p.Kakao.ValidateURL,
		}, opts()...))
	}
	if p.Naver.IsEnabled() {
		strategies = append(strategies, naver.New(naver.Config{
			ClientID:     p.Naver.ClientID,
			ClientSecret: p.Naver.ClientSecret,
			RedirectURI:  p.Naver.RedirectURI,
			AuthURL:      p.Naver.AuthURL,
			TokenURL:     p.Naver.TokenURL,
			ProfileURL:   p.Naver.UserInfoURL,
		}, opts()...))
	}
	if p.Google.IsEnabled() {
		strategies = append(strategies, google.New(google.Config{
			ClientID:     p.Google.ClientID,
			ClientSecret: p.Google.ClientSecret,
			RedirectURI:  p.Google.RedirectURI,
			Scopes:       p.Google.Scopes,
			AuthURL:      p.Google.AuthURL,
			TokenURL:     p.Google.TokenURL,
			UserInfoURL:  p.Google.UserInfoURL,
			TokenInfoURL: p.Google.ValidateURL,
		}, opts()...))
	}
	if p.Apple.IsEnabled() {
		s, err := apple.New(apple.Config{
			ClientID:    p.Apple.ClientID,
			TeamID:      p.Apple.TeamID,
			KeyID:       p.Apple.KeyID,
			PrivateKey:  p.Apple.PrivateKey,
			RedirectURI: p.Apple.RedirectURI,
			Scopes:      p.Apple.Scopes,
			AuthURL:     p.Apple.AuthURL,
			TokenURL:    p.Apple.TokenURL,
			KeysURL:     p.Apple.KeysURL,
		}, opts()...)
		if err != nil {
			return nil, fmt.Errorf("providers.apple: %w", err)
		}
		strategies = append(strategies, s)
	}
	return providers.NewRegistry(strategies...)
}
