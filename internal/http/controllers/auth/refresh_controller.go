package auth

import (
	"net/http"

	httperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/http/helpers"
	svc "github.com/dropDatabas3/socialgate/internal/http/services/auth"
)

// RefreshController handles POST /auth/refresh.
type RefreshController struct {
	service svc.RefreshService
}

func NewRefreshController(service svc.RefreshService) *RefreshController {
	return &RefreshController{service: service}
}

// Refresh expects the session refresh token as bearer credential.
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	rt := helpers.BearerToken(r)
	if rt == "" {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_request"`)
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}
	pair, err := c.service.RefreshSession(r.Context(), rt)
	if err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}
