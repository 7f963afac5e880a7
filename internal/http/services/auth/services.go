// Package auth contains the authentication services: login URL and callback
// handling, session refresh, user info and logout.
package auth

import (
	"errors"
	"time"

	"github.com/dropDatabas3/socialgate/internal/jwt"
	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/state"
	"github.com/dropDatabas3/socialgate/internal/store"
)

// ErrUnauthorized is the single error clients see when a callback, refresh or
// session lookup fails. The cause is logged, never returned.
var ErrUnauthorized = errors.New("auth: unauthorized")

// Deps contains the dependencies for the auth services.
type Deps struct {
	Registry *providers.Registry
	Store    store.UserStore
	Issuer   *jwt.Issuer
	States   *state.Store // nil disables server-side state checks
	Now      func() time.Time
}

// Services groups the auth services.
type Services struct {
	Login   LoginService
	Refresh RefreshService
	Session SessionService
}

// NewServices builds the auth services.
func NewServices(d Deps) Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	return Services{
		Login: NewLoginService(LoginDeps{
			Registry: d.Registry,
			Store:    d.Store,
			Issuer:   d.Issuer,
			States:   d.States,
			Now:      d.Now,
		}),
		Refresh: NewRefreshService(RefreshDeps{
			Registry: d.Registry,
			Store:    d.Store,
			Issuer:   d.Issuer,
			Now:      d.Now,
		}),
		Session: NewSessionService(SessionDeps{
			Registry: d.Registry,
			Store:    d.Store,
			Issuer:   d.Issuer,
			Now:      d.Now,
		}),
	}
}

func subjectOf(u *store.User) jwt.Subject {
	return jwt.Subject{UserID: u.ID, Email: u.Email, Provider: string(u.Provider)}
}

func nowOr(fn func() time.Time) func() time.Time {
	if fn == nil {
		return time.Now
	}
	return fn
}
