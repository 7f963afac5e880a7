package auth

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/socialgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/http/helpers"
	svc "github.com/dropDatabas3/socialgate/internal/http/services/auth"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/go-chi/chi/v5"
)

const maxFormBytes = 64 << 10

// LoginController handles the login URL, the provider callback and provider
// discovery.
type LoginController struct {
	service svc.LoginService
}

func NewLoginController(service svc.LoginService) *LoginController {
	return &LoginController{service: service}
}

// AuthURL handles GET /auth/{provider}/url?state=...
func (c *LoginController) AuthURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.AuthURL"))

	res, err := c.service.AuthURL(ctx, chi.URLParam(r, "provider"), r.URL.Query().Get("state"))
	if err != nil {
		log.Debug("auth url failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.AuthURLResponse{URL: res.URL, State: res.State})
}

// Callback handles GET and POST /auth/{provider}/callback. POST carries the
// form_post response mode used by Apple.
func (c *LoginController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Callback"))

	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			httperrors.WriteError(w, httperrors.ErrBadRequest)
			return
		}
	}
	if e := r.FormValue("error"); e != "" {
		// the user denied consent or the provider rejected the request
		log.Info("provider returned error", logger.String("provider_error", e))
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	code := strings.TrimSpace(r.FormValue("code"))
	if code == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("code is required"))
		return
	}

	pair, err := c.service.HandleCallback(ctx, code, chi.URLParam(r, "provider"), r.FormValue("state"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

// Providers handles GET /auth/providers.
func (c *LoginController) Providers(w http.ResponseWriter, r *http.Request) {
	ps := c.service.Providers()
	out := dto.ProvidersResponse{Providers: make([]string, 0, len(ps))}
	for _, p := range ps {
		out.Providers = append(out.Providers, string(p))
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}
