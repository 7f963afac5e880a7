package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/socialgate/internal/audit"
	"github.com/dropDatabas3/socialgate/internal/jwt"
	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/store"
	"go.uber.org/zap"
)

// RefreshService exchanges a session refresh token for a new pair.
type RefreshService interface {
	RefreshSession(ctx context.Context, refreshToken string) (*jwt.TokenPair, error)
}

// RefreshDeps contains dependencies for the refresh service.
type RefreshDeps struct {
	Registry *providers.Registry
	Store    store.UserStore
	Issuer   *jwt.Issuer
	Now      func() time.Time
}

type refreshService struct {
	deps RefreshDeps
}

// NewRefreshService creates a new refresh service.
func NewRefreshService(deps RefreshDeps) RefreshService {
	deps.Now = nowOr(deps.Now)
	return &refreshService{deps: deps}
}

var errNoProviderRefresh = errors.New("no provider refresh token stored")

// RefreshSession verifies a refresh-kind session token, refreshes the
// provider tokens behind it and issues a new session pair. Every failure is
// ErrUnauthorized.
func (s *refreshService) RefreshSession(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("RefreshSession"),
	)

	claims, err := s.deps.Issuer.Verify(strings.TrimSpace(refreshToken), jwt.KindRefresh)
	if err != nil {
		metrics.ObserveFlow("refresh", "unknown", "error")
		log.Debug("refresh token rejected", logger.Err(err))
		return nil, ErrUnauthorized
	}
	log = log.With(logger.UserID(claims.Subject), logger.Provider(claims.Provider))

	pair, err := s.refresh(ctx, log, claims)
	if err != nil {
		metrics.ObserveFlow("refresh", claims.Provider, "error")
		log.Warn("session refresh failed", logger.Step("failed"), logger.Err(err))
		return nil, ErrUnauthorized
	}
	metrics.ObserveFlow("refresh", claims.Provider, "ok")
	metrics.SessionTokensIssued.WithLabelValues(claims.Provider).Inc()
	return pair, nil
}

func (s *refreshService) refresh(ctx context.Context, log *zap.Logger, claims *jwt.Claims) (*jwt.TokenPair, error) {
	p, err := providers.Parse(claims.Provider)
	if err != nil {
		return nil, err
	}
	strat, err := s.deps.Registry.Resolve(p)
	if err != nil {
		return nil, err
	}

	user, err := s.deps.Store.FindUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	stored, err := s.deps.Store.FindProviderToken(ctx, user.ID, p)
	if err != nil {
		return nil, err
	}
	if stored.RefreshToken == "" {
		return nil, errNoProviderRefresh
	}

	fresh, err := strat.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		return nil, err
	}
	log.Debug("provider tokens refreshed", logger.Step("provider_tokens_obtained"))

	next := store.ProviderToken{
		UserID:       user.ID,
		Provider:     p,
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		IDToken:      fresh.IDToken,
		TokenType:    fresh.TokenType,
		Scope:        fresh.Scope,
		ExpiresAt:    fresh.ExpiresAt(s.deps.Now()),
	}
	if next.RefreshToken == "" {
		next.RefreshToken = stored.RefreshToken
	}
	if next.IDToken == "" {
		next.IDToken = stored.IDToken
	}
	if len(next.Scope) == 0 {
		next.Scope = stored.Scope
	}
	if err := s.deps.Store.UpsertProviderToken(ctx, next); err != nil {
		return nil, err
	}
	log.Debug("provider tokens stored", logger.Step("tokens_stored"))

	pair, err := s.deps.Issuer.IssuePair(ctx, jwt.Subject{UserID: user.ID, Email: user.Email, Provider: string(p)})
	if err != nil {
		return nil, err
	}
	log.Info("session refreshed", logger.Step("session_issued"))
	audit.Log(ctx, audit.SessionRefreshed, logger.Provider(string(p)), logger.UserID(user.ID))
	return pair, nil
}
