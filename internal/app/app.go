// Package app wires the gateway from configuration: stores, caches, provider
// strategies, the session issuer, services, controllers and the router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/socialgate/internal/cache"
	"github.com/dropDatabas3/socialgate/internal/config"
	authctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/health"
	"github.com/dropDatabas3/socialgate/internal/http/router"
	authsvc "github.com/dropDatabas3/socialgate/internal/http/services/auth"
	"github.com/dropDatabas3/socialgate/internal/jwt"
	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/rate"
	"github.com/dropDatabas3/socialgate/internal/security/secretbox"
	"github.com/dropDatabas3/socialgate/internal/state"
	"github.com/dropDatabas3/socialgate/internal/store"
	"github.com/dropDatabas3/socialgate/internal/store/memory"
	"github.com/dropDatabas3/socialgate/internal/store/pg"
	"github.com/prometheus/client_golang/prometheus"
)

// Container is the wired application.
type Container struct {
	Handler http.Handler
	Store   store.UserStore
	Cache   cache.Client
	Issuer  *jwt.Issuer

	closers []func()
}

// Close releases stores and caches in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Options tweak Build for tests and embedding.
type Options struct {
	// Registerer receives the metrics collectors. Default: prometheus default registerer.
	Registerer prometheus.Registerer
	// Store replaces the configured user store.
	Store store.UserStore
}

// Build wires everything cfg describes. On error every resource opened so far
// is released.
func Build(ctx context.Context, cfg *config.Config, opts Options) (c *Container, err error) {
	log := logger.L().With(logger.Component("app"))
	c = &Container{}
	defer func() {
		if err != nil {
			c.Close()
			c = nil
		}
	}()

	c.Store = opts.Store
	if c.Store == nil {
		if c.Store, err = OpenStore(ctx, cfg); err != nil {
			return nil, err
		}
		c.closers = append(c.closers, c.Store.Close)
	}

	c.Cache, err = cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	cc := c.Cache
	c.closers = append(c.closers, func() { _ = cc.Close() })

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	if len(registry.Providers()) == 0 {
		log.Warn("no identity provider enabled")
	}

	c.Issuer, err = jwt.NewIssuer(jwt.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  config.MustDuration(cfg.JWT.AccessTTL),
		RefreshTTL: config.MustDuration(cfg.JWT.RefreshTTL),
	})
	if err != nil {
		return nil, err
	}

	var states *state.Store
	if cfg.Auth.StateCheck {
		states = state.NewStore(c.Cache, config.MustDuration(cfg.Auth.StateTTL))
	}

	services := authsvc.NewServices(authsvc.Deps{
		Registry: registry,
		Store:    c.Store,
		Issuer:   c.Issuer,
		States:   states,
	})

	metricsHandler, err := metrics.Register(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	c.Handler = router.New(router.Deps{
		Auth: authctrl.NewControllers(services),
		Health: healthctrl.NewHealthController(cfg.App.Version, map[string]healthctrl.Pinger{
			"store": c.Store,
			"cache": c.Cache,
		}),
		Metrics: metricsHandler,
		Limiter: buildLimiter(cfg, c.Cache),
	})

	log.Info("application wired",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.Any("providers", registry.Providers()),
		logger.Bool("state_check", states != nil),
	)
	return c, nil
}

// OpenStore opens the user store cfg.Storage selects.
func OpenStore(ctx context.Context, cfg *config.Config) (store.UserStore, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memory.New(), nil
	case "postgres":
		var box *secretbox.Box
		if cfg.Storage.TokenEncryptionKey != "" {
			b, err := secretbox.New(cfg.Storage.TokenEncryptionKey)
			if err != nil {
				return nil, fmt.Errorf("storage.token_encryption_key: %w", err)
			}
			box = b
		} else {
			logger.L().Warn("provider tokens stored unencrypted: no token encryption key")
		}
		return pg.Open(ctx, pg.Config{DSN: cfg.Storage.DSN, MaxConns: int32(cfg.Storage.MaxConns)}, box)
	}
	return nil, errors.New("unknown storage driver " + cfg.Storage.Driver)
}

func buildLimiter(cfg *config.Config, c cache.Client) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	window := config.MustDuration(cfg.Rate.Window)
	switch cc := c.(type) {
	case *cache.Redis:
		return rate.NewRedisLimiter(cc.Raw(), "", cfg.Rate.MaxRequests, window)
	case *cache.Memory:
		return rate.NewMemoryLimiter(cc, cfg.Rate.MaxRequests, window)
	}
	return nil
}
