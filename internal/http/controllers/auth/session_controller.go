package auth

import (
	"net/http"

	httperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/http/helpers"
	svc "github.com/dropDatabas3/socialgate/internal/http/services/auth"
)

// SessionController serves endpoints authenticated by a session access token.
type SessionController struct {
	service svc.SessionService
}

func NewSessionController(service svc.SessionService) *SessionController {
	return &SessionController{service: service}
}

// UserInfo handles GET /auth/user.
func (c *SessionController) UserInfo(w http.ResponseWriter, r *http.Request) {
	at, ok := bearer(w, r)
	if !ok {
		return
	}
	prof, err := c.service.UserInfo(r.Context(), at)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, prof)
}

// Logout handles POST /auth/logout.
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	at, ok := bearer(w, r)
	if !ok {
		return
	}
	if err := c.service.Logout(r.Context(), at); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	tok := helpers.BearerToken(r)
	if tok == "" {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_request"`)
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return "", false
	}
	return tok, true
}
