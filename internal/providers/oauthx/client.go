// Package oauthx holds the transport shared by every provider strategy:
// authorization URL building, code exchange and refresh over x/oauth2, and
// bearer-authenticated JSON fetches. Every upstream failure leaves this
// package wrapped in providers.ErrUpstreamAuth and never carries the
// provider's response body.
package oauthx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/providers"
	tokens "github.com/dropDatabas3/socialgate/internal/security/token"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// Config describes one OAuth2 client registration.
type Config struct {
	Provider     providers.Provider
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
	// ScopeSep joins Scopes in the authorization URL. Defaults to a space.
	ScopeSep string
}

// Client performs the OAuth2 legs of a provider flow.
type Client struct {
	cfg  Config
	http *http.Client
	// secret, when set, produces the client secret per token request
	// (Apple signs a fresh assertion every time).
	secret func() (string, error)
	// throttle bounds the outbound call rate to the provider.
	throttle *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the outbound HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSecretFunc makes the client secret dynamic.
func WithSecretFunc(fn func() (string, error)) Option {
	return func(c *Client) { c.secret = fn }
}

// WithThrottle makes every outbound call wait for a token from l.
func WithThrottle(l *rate.Limiter) Option {
	return func(c *Client) { c.throttle = l }
}

// NewHTTPClient returns the client used for provider calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.ScopeSep == "" {
		cfg.ScopeSep = " "
	}
	c := &Client{cfg: cfg, http: NewHTTPClient(0)}
	for _, o := range opts {
		o(c)
	}
	return c
}

// HTTP exposes the outbound client for provider-specific calls.
func (c *Client) HTTP() *http.Client { return c.http }

// AuthURL builds the authorization redirect. extra params are appended after
// the standard ones; an empty state is replaced with a random one.
func (c *Client) AuthURL(state string, extra url.Values) string {
	if state == "" {
		state = NewState()
	}
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	if len(c.cfg.Scopes) > 0 {
		q.Set("scope", strings.Join(c.cfg.Scopes, c.cfg.ScopeSep))
	}
	q.Set("state", state)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	sep := "?"
	if strings.Contains(c.cfg.AuthURL, "?") {
		sep = "&"
	}
	return c.cfg.AuthURL + sep + q.Encode()
}

// NewState returns a random CSRF state value.
func NewState() string {
	s, err := tokens.GenerateOpaqueToken(24)
	if err != nil {
		return fmt.Sprintf("st-%d", time.Now().UnixNano())
	}
	return s
}

func (c *Client) oauth2Config() (*oauth2.Config, error) {
	secret := c.cfg.ClientSecret
	if c.secret != nil {
		s, err := c.secret()
		if err != nil {
			return nil, err
		}
		secret = s
	}
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: secret,
		RedirectURL:  c.cfg.RedirectURL,
		Scopes:       c.cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.cfg.AuthURL,
			TokenURL: c.cfg.TokenURL,
			// Credentials go in the form body; auto-detection would resend the code.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, nil
}

// Exchange trades an authorization code for tokens. Single attempt.
func (c *Client) Exchange(ctx context.Context, code string) (ts *providers.TokenSet, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProviderCall(c.cfg.Provider.String(), "exchange", start, err) }()

	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: %s: empty authorization code", providers.ErrUpstreamAuth, c.cfg.Provider)
	}
	if err := c.wait(ctx); err != nil {
		return nil, c.upstream("exchange", err)
	}
	oc, err := c.oauth2Config()
	if err != nil {
		return nil, c.upstream("exchange", err)
	}
	tok, err := oc.Exchange(c.withClient(ctx), code)
	if err != nil {
		return nil, c.upstream("exchange", err)
	}
	return fromOAuth2(tok, ""), nil
}

// Refresh obtains new tokens with a refresh token. When the provider omits a
// new refresh token, the previous one is kept.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (ts *providers.TokenSet, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProviderCall(c.cfg.Provider.String(), "refresh", start, err) }()

	if refreshToken == "" {
		return nil, fmt.Errorf("%w: %s: no refresh token", providers.ErrUpstreamAuth, c.cfg.Provider)
	}
	if err := c.wait(ctx); err != nil {
		return nil, c.upstream("refresh", err)
	}
	oc, err := c.oauth2Config()
	if err != nil {
		return nil, c.upstream("refresh", err)
	}
	tok, err := oc.TokenSource(c.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, c.upstream("refresh", err)
	}
	return fromOAuth2(tok, refreshToken), nil
}

// GetJSON performs a GET with a bearer token and returns the body of a 2xx response.
func (c *Client) GetJSON(ctx context.Context, op, endpoint, accessToken string) (body []byte, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProviderCall(c.cfg.Provider.String(), op, start, err) }()

	if err := c.wait(ctx); err != nil {
		return nil, c.upstream(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, c.upstream(op, err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.upstream(op, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.upstream(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.upstream(op, &StatusError{Status: resp.StatusCode})
	}
	return body, nil
}

// StatusError is a non-2xx provider response. The body is deliberately dropped.
type StatusError struct{ Status int }

func (e *StatusError) Error() string { return fmt.Sprintf("status %d", e.Status) }

var errThrottled = errors.New("throttled")

func (c *Client) wait(ctx context.Context) error {
	if c.throttle == nil {
		return nil
	}
	if err := c.throttle.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", errThrottled, err)
	}
	return nil
}

func (c *Client) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// upstream logs the cause and returns an ErrUpstreamAuth that only keeps the
// HTTP status or the provider error code.
func (c *Client) upstream(op string, cause error) error {
	detail := "request failed"
	var re *oauth2.RetrieveError
	var se *StatusError
	switch {
	case errors.As(cause, &re):
		detail = "token endpoint rejected request"
		if re.ErrorCode != "" {
			detail += ": " + re.ErrorCode
		} else if re.Response != nil {
			detail += fmt.Sprintf(": status %d", re.Response.StatusCode)
		}
	case errors.As(cause, &se):
		detail = se.Error()
	case errors.Is(cause, errThrottled):
		detail = "throttled"
	case errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled):
		detail = "timeout"
	}
	logger.L().With(logger.Layer("provider"), logger.Component("oauthx")).Warn("provider call failed",
		logger.Provider(c.cfg.Provider.String()),
		logger.Op(op),
		logger.String("detail", detail),
	)
	return fmt.Errorf("%w: %s %s: %s", providers.ErrUpstreamAuth, c.cfg.Provider, op, detail)
}

func fromOAuth2(tok *oauth2.Token, prevRefresh string) *providers.TokenSet {
	ts := &providers.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		ExpiresIn:    int(tok.ExpiresIn),
	}
	if ts.RefreshToken == "" {
		ts.RefreshToken = prevRefresh
	}
	if ts.ExpiresIn <= 0 && !tok.Expiry.IsZero() {
		ts.ExpiresIn = int(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}
	if v, ok := tok.Extra("id_token").(string); ok {
		ts.IDToken = v
	}
	if v, ok := tok.Extra("scope").(string); ok {
		ts.Scope = providers.SplitScope(v)
	}
	return ts
}

// OrDefault returns v, or def when v is empty. Strategies use it for
// overridable endpoint URLs.
func OrDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
