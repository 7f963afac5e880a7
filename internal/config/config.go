// Package config loads the gateway configuration from an optional YAML file
// and environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/socialgate/internal/validation"
	"gopkg.in/yaml.v3"
)

// ProviderConfig is the registration of one OAuth client. Endpoint overrides
// are only used against fakes and sandboxes.
type ProviderConfig struct {
	// Enabled defaults to true when a client id is configured.
	Enabled      *bool    `yaml:"enabled"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURI  string   `yaml:"redirect_uri"`
	Scopes       []string `yaml:"scopes"`

	AuthURL     string `yaml:"auth_url"`
	TokenURL    string `yaml:"token_url"`
	UserInfoURL string `yaml:"userinfo_url"`
	ValidateURL string `yaml:"validate_url"`
}

// IsEnabled reports whether the provider should be registered.
func (p ProviderConfig) IsEnabled() bool {
	if p.Enabled != nil {
		return *p.Enabled
	}
	return p.ClientID != ""
}

// AppleConfig adds the Sign in with Apple key material.
type AppleConfig struct {
	ProviderConfig `yaml:",inline"`
	TeamID         string `yaml:"team_id"`
	KeyID          string `yaml:"key_id"`
	// PrivateKey is the .p8 PEM. Literal "\n" sequences are accepted.
	PrivateKey string `yaml:"private_key"`
	KeysURL    string `yaml:"keys_url"`
}

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
		Version  string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		MaxConns int    `yaml:"max_conns"`
		// TokenEncryptionKey seals provider tokens at rest (32 bytes, base64 or hex).
		TokenEncryptionKey string `yaml:"token_encryption_key"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Secret     string `yaml:"secret"`
		Issuer     string `yaml:"issuer"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Auth struct {
		// StateCheck enables the server-side CSRF state store.
		StateCheck bool   `yaml:"state_check"`
		StateTTL   string `yaml:"state_ttl"`
		// HTTPTimeout bounds every outbound provider call.
		HTTPTimeout string `yaml:"http_timeout"`
		// ProviderRPS caps outbound calls per provider per second. 0 disables.
		ProviderRPS   float64 `yaml:"provider_rps"`
		ProviderBurst int     `yaml:"provider_burst"`
	} `yaml:"auth"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		MaxRequests int    `yaml:"max_requests"`
		Window      string `yaml:"window"`
	} `yaml:"rate"`

	Providers struct {
		Kakao  ProviderConfig `yaml:"kakao"`
		Naver  ProviderConfig `yaml:"naver"`
		Google ProviderConfig `yaml:"google"`
		Apple  AppleConfig    `yaml:"apple"`
	} `yaml:"providers"`
}

// Load reads path (skipped when empty or missing), applies environment
// overrides and defaults, then validates.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "15s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "socialgate:"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "7d"
	}
	if c.Auth.StateTTL == "" {
		c.Auth.StateTTL = "10m"
	}
	if c.Auth.HTTPTimeout == "" {
		c.Auth.HTTPTimeout = "10s"
	}
	if c.Auth.ProviderRPS > 0 && c.Auth.ProviderBurst <= 0 {
		c.Auth.ProviderBurst = int(c.Auth.ProviderRPS)
		if c.Auth.ProviderBurst < 1 {
			c.Auth.ProviderBurst = 1
		}
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

func setStr(dst *string, key string) {
	if v, ok := getEnvStr(key); ok {
		*dst = v
	}
}

func (p *ProviderConfig) applyEnv(prefix string) {
	if v, ok := getEnvBool(prefix + "_ENABLED"); ok {
		p.Enabled = &v
	}
	setStr(&p.ClientID, prefix+"_CLIENT_ID")
	setStr(&p.ClientSecret, prefix+"_CLIENT_SECRET")
	setStr(&p.RedirectURI, prefix+"_REDIRECT_URI")
	if v, ok := getEnvCSV(prefix + "_SCOPES"); ok {
		p.Scopes = v
	}
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	setStr(&c.App.LogLevel, "LOG_LEVEL")

	setStr(&c.Server.Addr, "SERVER_ADDR")
	if v, ok := getEnvInt("PORT"); ok && os.Getenv("SERVER_ADDR") == "" {
		c.Server.Addr = ":" + strconv.Itoa(v)
	}

	setStr(&c.Storage.Driver, "STORAGE_DRIVER")
	setStr(&c.Storage.DSN, "STORAGE_DSN")
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
		if os.Getenv("STORAGE_DRIVER") == "" {
			c.Storage.Driver = "postgres"
		}
	}
	if v, ok := getEnvInt("DATABASE_MAX_CONNECTIONS"); ok {
		c.Storage.MaxConns = v
	}
	setStr(&c.Storage.TokenEncryptionKey, "TOKEN_ENCRYPTION_KEY")

	setStr(&c.Cache.Kind, "CACHE_KIND")
	setStr(&c.Cache.Redis.Addr, "REDIS_ADDR")
	setStr(&c.Cache.Redis.Password, "REDIS_PASSWORD")
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	setStr(&c.JWT.Secret, "JWT_SECRET")
	setStr(&c.JWT.Issuer, "JWT_ISSUER")
	setStr(&c.JWT.AccessTTL, "JWT_ACCESS_EXPIRATION")
	setStr(&c.JWT.RefreshTTL, "JWT_REFRESH_EXPIRATION")

	if v, ok := getEnvBool("AUTH_STATE_CHECK"); ok {
		c.Auth.StateCheck = v
	}
	setStr(&c.Auth.HTTPTimeout, "PROVIDER_HTTP_TIMEOUT")
	if s, ok := getEnvStr("PROVIDER_RPS"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			c.Auth.ProviderRPS = f
		}
	}
	if v, ok := getEnvInt("PROVIDER_BURST"); ok {
		c.Auth.ProviderBurst = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	setStr(&c.Rate.Window, "RATE_WINDOW")

	c.Providers.Kakao.applyEnv("KAKAO")
	c.Providers.Naver.applyEnv("NAVER")
	c.Providers.Google.applyEnv("GOOGLE")
	c.Providers.Apple.applyEnv("APPLE")
	setStr(&c.Providers.Apple.TeamID, "APPLE_TEAM_ID")
	setStr(&c.Providers.Apple.KeyID, "APPLE_KEY_ID")
	setStr(&c.Providers.Apple.PrivateKey, "APPLE_PRIVATE_KEY")
}

// Validate checks the values the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret (JWT_SECRET) is required"))
	} else if c.App.Env == "prod" && len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("jwt.secret must be at least 32 bytes in prod"))
	}
	for name, v := range map[string]string{
		"jwt.access_ttl":          c.JWT.AccessTTL,
		"jwt.refresh_ttl":         c.JWT.RefreshTTL,
		"auth.state_ttl":          c.Auth.StateTTL,
		"auth.http_timeout":       c.Auth.HTTPTimeout,
		"rate.window":             c.Rate.Window,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d, err := ParseDuration(v); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		}
	}

	if c.Auth.ProviderRPS < 0 {
		errs = append(errs, errors.New("auth.provider_rps must not be negative"))
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown %q", c.Storage.Driver))
	}
	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unknown %q", c.Cache.Kind))
	}

	for name, p := range map[string]ProviderConfig{
		"kakao":  c.Providers.Kakao,
		"naver":  c.Providers.Naver,
		"google": c.Providers.Google,
	} {
		if !p.IsEnabled() {
			continue
		}
		if p.ClientID == "" || p.RedirectURI == "" {
			errs = append(errs, fmt.Errorf("providers.%s: client_id and redirect_uri are required", name))
		}
		errs = append(errs, p.validate("providers."+name)...)
	}
	if a := c.Providers.Apple; a.IsEnabled() {
		if a.ClientID == "" || a.RedirectURI == "" || a.TeamID == "" || a.KeyID == "" || a.PrivateKey == "" {
			errs = append(errs, errors.New("providers.apple: client_id, redirect_uri, team_id, key_id and private_key are required"))
		}
		errs = append(errs, a.validate("providers.apple")...)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (p ProviderConfig) validate(prefix string) []error {
	var errs []error
	if p.RedirectURI != "" && !validation.ValidRedirectURI(p.RedirectURI) {
		errs = append(errs, fmt.Errorf("%s.redirect_uri: must be an absolute http(s) URI", prefix))
	}
	for _, sc := range p.Scopes {
		if !validation.ValidScopeToken(sc) {
			errs = append(errs, fmt.Errorf("%s.scopes: invalid scope %q", prefix, sc))
		}
	}
	return errs
}

// ParseDuration accepts Go durations, a "d" suffix for days ("7d") and bare
// seconds ("900").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(s)
}

// MustDuration parses a value already checked by Validate.
func MustDuration(s string) time.Duration {
	d, err := ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}
