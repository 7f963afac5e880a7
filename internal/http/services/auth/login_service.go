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
	"github.com/dropDatabas3/socialgate/internal/providers/oauthx"
	"github.com/dropDatabas3/socialgate/internal/state"
	"github.com/dropDatabas3/socialgate/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthURLResult is the login redirect plus the state it carries.
type AuthURLResult struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// LoginService starts and completes provider logins.
type LoginService interface {
	AuthURL(ctx context.Context, provider, state string) (*AuthURLResult, error)
	HandleCallback(ctx context.Context, code, provider, state string) (*jwt.TokenPair, error)
	Providers() []providers.Provider
}

// LoginDeps contains dependencies for the login service.
type LoginDeps struct {
	Registry *providers.Registry
	Store    store.UserStore
	Issuer   *jwt.Issuer
	States   *state.Store
	Now      func() time.Time
}

type loginService struct {
	deps LoginDeps
}

// NewLoginService creates a new login service.
func NewLoginService(deps LoginDeps) LoginService {
	deps.Now = nowOr(deps.Now)
	return &loginService{deps: deps}
}

func (s *loginService) Providers() []providers.Provider {
	return s.deps.Registry.Providers()
}

// AuthURL builds the provider login URL. An empty state is replaced by a
// random one; the state is recorded when a state store is configured.
func (s *loginService) AuthURL(ctx context.Context, provider, st string) (*AuthURLResult, error) {
	strat, err := s.deps.Registry.Lookup(provider)
	if err != nil {
		return nil, err
	}
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("AuthURL"),
		logger.Provider(string(strat.Name())),
	)

	if st == "" {
		st = oauthx.NewState()
	}
	if s.deps.States != nil {
		if err := s.deps.States.Save(ctx, strat.Name(), st); err != nil {
			log.Error("state save failed", logger.Err(err))
			return nil, err
		}
	}
	log.Debug("auth url issued", logger.Step("url_requested"))
	return &AuthURLResult{URL: strat.AuthURL(st), State: st}, nil
}

// HandleCallback completes a login: code exchange, profile fetch, user
// find-or-create, provider token storage and session issuance.
//
// Unknown providers and email conflicts are returned as is. Every other
// failure becomes ErrUnauthorized.
func (s *loginService) HandleCallback(ctx context.Context, code, provider, st string) (*jwt.TokenPair, error) {
	strat, err := s.deps.Registry.Lookup(provider)
	if err != nil {
		return nil, err
	}
	p := strat.Name()
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("HandleCallback"),
		logger.Provider(string(p)),
	)

	pair, err := s.callback(ctx, log, strat, strings.TrimSpace(code), st)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.ObserveFlow("callback", string(p), "conflict")
			log.Warn("callback rejected", logger.Step("failed"), logger.Err(err))
			audit.Log(ctx, audit.LoginConflict, logger.Provider(string(p)))
			return nil, err
		}
		metrics.ObserveFlow("callback", string(p), "error")
		log.Warn("callback failed", logger.Step("failed"), logger.Err(err))
		return nil, ErrUnauthorized
	}
	metrics.ObserveFlow("callback", string(p), "ok")
	metrics.SessionTokensIssued.WithLabelValues(string(p)).Inc()
	return pair, nil
}

func (s *loginService) callback(ctx context.Context, log *zap.Logger, strat providers.Strategy, code, st string) (*jwt.TokenPair, error) {
	p := strat.Name()
	log.Debug("callback received", logger.Step("callback_received"))

	if code == "" {
		return nil, errors.New("missing authorization code")
	}
	if s.deps.States != nil {
		if err := s.deps.States.Consume(ctx, p, st); err != nil {
			return nil, err
		}
	}

	tokens, err := strat.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	log.Debug("provider tokens obtained", logger.Step("provider_tokens_obtained"))

	prof, err := strat.Profile(ctx, tokens)
	if err != nil {
		return nil, err
	}
	if err := providers.Validate(prof); err != nil {
		return nil, err
	}
	log.Debug("profile fetched", logger.Step("profile_fetched"), logger.ExternalID(prof.ExternalID))

	user, created, err := s.resolveUser(ctx, prof)
	if err != nil {
		return nil, err
	}
	log = log.With(logger.UserID(user.ID))
	log.Debug("user resolved", logger.Step("user_resolved"), logger.Bool("created", created))

	now := s.deps.Now()
	err = s.deps.Store.UpsertProviderToken(ctx, store.ProviderToken{
		UserID:       user.ID,
		Provider:     p,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		IDToken:      tokens.IDToken,
		TokenType:    tokens.TokenType,
		Scope:        tokens.Scope,
		ExpiresAt:    tokens.ExpiresAt(now),
	})
	if err != nil {
		s.rollback(ctx, log, user, created)
		return nil, err
	}
	log.Debug("provider tokens stored", logger.Step("tokens_stored"))

	pair, err := s.deps.Issuer.IssuePair(ctx, subjectOf(user))
	if err != nil {
		s.rollback(ctx, log, user, created)
		return nil, err
	}
	log.Info("session issued", logger.Step("session_issued"))
	if created {
		audit.Log(ctx, audit.UserCreated, logger.Provider(string(p)), logger.UserID(user.ID), logger.MaskedEmail(user.Email))
	}
	audit.Log(ctx, audit.LoginSucceeded, logger.Provider(string(p)), logger.UserID(user.ID))
	return pair, nil
}

// rollback removes a user created earlier in the same callback.
func (s *loginService) rollback(ctx context.Context, log *zap.Logger, u *store.User, created bool) {
	if !created {
		return
	}
	// the request context may already be cancelled
	ctx = context.WithoutCancel(ctx)
	if err := s.deps.Store.DeleteUser(ctx, u.ID); err != nil {
		log.Error("rollback of new user failed", logger.Err(err))
		return
	}
	log.Debug("new user rolled back")
}

// resolveUser finds the user anchored to the profile identity, merging
// non-empty profile fields, or creates it.
func (s *loginService) resolveUser(ctx context.Context, prof *providers.Profile) (*store.User, bool, error) {
	now := s.deps.Now()
	u, err := s.deps.Store.FindUser(ctx, prof.Provider, prof.ExternalID)
	switch {
	case err == nil:
		u, err = s.mergeProfile(ctx, u, prof, now)
		return u, false, err
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, err
	}

	if prof.Email != "" {
		owner, err := s.deps.Store.FindUserByEmail(ctx, prof.Email)
		if err == nil && owner != nil {
			return nil, false, store.ErrConflict
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, false, err
		}
	}

	in := store.CreateUserInput{
		ID:         uuid.NewString(),
		Provider:   prof.Provider,
		ProviderID: prof.ExternalID,
		Email:      prof.Email,
		Name:       prof.DisplayName,
		Picture:    prof.PictureURL,
		RawProfile: prof.Raw,
	}
	if in.Name == "" {
		in.Name = defaultName()
	}
	if prof.Email != "" {
		in.EmailVerifiedAt = &now
	}
	u, err = s.deps.Store.CreateUser(ctx, in)
	if errors.Is(err, store.ErrConflict) {
		// a concurrent callback for the same identity won the insert
		if existing, ferr := s.deps.Store.FindUser(ctx, prof.Provider, prof.ExternalID); ferr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *loginService) mergeProfile(ctx context.Context, u *store.User, prof *providers.Profile, now time.Time) (*store.User, error) {
	var upd store.ProfileUpdate
	if prof.Email != "" && !strings.EqualFold(prof.Email, u.Email) {
		upd.Email = prof.Email
	}
	if prof.DisplayName != "" && prof.DisplayName != u.Name {
		upd.Name = prof.DisplayName
	}
	if prof.PictureURL != "" && prof.PictureURL != u.Picture {
		upd.Picture = prof.PictureURL
	}
	if prof.Email != "" && u.EmailVerifiedAt == nil {
		upd.EmailVerifiedAt = &now
	}
	if len(prof.Raw) > 0 && string(prof.Raw) != string(u.RawProfile) {
		upd.RawProfile = prof.Raw
	}
	if upd.Empty() {
		return u, nil
	}
	return s.deps.Store.UpdateUserProfile(ctx, u.ID, upd)
}

func defaultName() string {
	return "User_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
