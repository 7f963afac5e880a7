// Package auth contains the HTTP controllers of the auth endpoints.
package auth

import (
	dto "github.com/dropDatabas3/socialgate/internal/http/dto/auth"
	svc "github.com/dropDatabas3/socialgate/internal/http/services/auth"
	"github.com/dropDatabas3/socialgate/internal/jwt"
)

// Controllers groups the auth controllers.
type Controllers struct {
	Login   *LoginController
	Refresh *RefreshController
	Session *SessionController
}

// NewControllers builds the auth controllers.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Login:   NewLoginController(s.Login),
		Refresh: NewRefreshController(s.Refresh),
		Session: NewSessionController(s.Session),
	}
}

func tokenResponse(p *jwt.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		ExpiresIn:        p.ExpiresIn,
		RefreshExpiresIn: p.RefreshExpiresIn,
		TokenType:        p.TokenType,
	}
}
