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
)

// SessionService serves requests carrying a session access token.
type SessionService interface {
	// UserInfo re-fetches the live provider profile of the session's user.
	UserInfo(ctx context.Context, accessToken string) (*providers.Profile, error)
	// Logout forgets the provider tokens of the session. Later refreshes fail.
	Logout(ctx context.Context, accessToken string) error
}

// SessionDeps contains dependencies for the session service.
type SessionDeps struct {
	Registry *providers.Registry
	Store    store.UserStore
	Issuer   *jwt.Issuer
	Now      func() time.Time
}

type sessionService struct {
	deps SessionDeps
}

// NewSessionService creates a new session service.
func NewSessionService(deps SessionDeps) SessionService {
	deps.Now = nowOr(deps.Now)
	return &sessionService{deps: deps}
}

func (s *sessionService) UserInfo(ctx context.Context, accessToken string) (*providers.Profile, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("UserInfo"),
	)

	claims, p, err := s.verify(accessToken)
	if err != nil {
		log.Debug("access token rejected", logger.Err(err))
		return nil, ErrUnauthorized
	}
	log = log.With(logger.UserID(claims.Subject), logger.Provider(string(p)))

	prof, err := s.userInfo(ctx, claims.Subject, p)
	if err != nil {
		metrics.ObserveFlow("userinfo", string(p), "error")
		log.Warn("user info failed", logger.Err(err))
		return nil, ErrUnauthorized
	}
	metrics.ObserveFlow("userinfo", string(p), "ok")
	return prof, nil
}

func (s *sessionService) userInfo(ctx context.Context, userID string, p providers.Provider) (*providers.Profile, error) {
	strat, err := s.deps.Registry.Resolve(p)
	if err != nil {
		return nil, err
	}
	tok, err := s.deps.Store.FindProviderToken(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return strat.Profile(ctx, tok.TokenSet(s.deps.Now()))
}

func (s *sessionService) Logout(ctx context.Context, accessToken string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Logout"),
	)

	claims, p, err := s.verify(accessToken)
	if err != nil {
		log.Debug("access token rejected", logger.Err(err))
		return ErrUnauthorized
	}
	err = s.deps.Store.DeleteProviderToken(ctx, claims.Subject, p)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("provider token delete failed", logger.UserID(claims.Subject), logger.Err(err))
		return err
	}
	log.Info("logged out", logger.UserID(claims.Subject), logger.Provider(string(p)))
	audit.Log(ctx, audit.SessionLoggedOut, logger.Provider(string(p)), logger.UserID(claims.Subject))
	return nil
}

func (s *sessionService) verify(accessToken string) (*jwt.Claims, providers.Provider, error) {
	claims, err := s.deps.Issuer.Verify(strings.TrimSpace(accessToken), jwt.KindAccess)
	if err != nil {
		return nil, "", err
	}
	p, err := providers.Parse(claims.Provider)
	if err != nil {
		return nil, "", err
	}
	return claims, p, nil
}
