// Package health contains the liveness and readiness controllers.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/socialgate/internal/http/helpers"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"golang.org/x/sync/errgroup"
)

// Pinger is anything readiness depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Response is the body of /readyz.
type Response struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

type HealthController struct {
	version    string
	components map[string]Pinger
	timeout    time.Duration
}

// NewHealthController checks every component on /readyz. Nil pingers are skipped.
func NewHealthController(version string, components map[string]Pinger) *HealthController {
	cs := make(map[string]Pinger, len(components))
	for name, p := range components {
		if p != nil {
			cs[name] = p
		}
	}
	return &HealthController{version: version, components: cs, timeout: 2 * time.Second}
}

// Healthz handles GET /healthz. The process is alive if it answers.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, Response{Status: "ok", Version: c.version})
}

// Readyz handles GET /readyz.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	results := make(map[string]string, len(c.components))
	errs := make(map[string]error, len(c.components))
	type outcome struct {
		name string
		err  error
	}
	out := make(chan outcome, len(c.components))
	var g errgroup.Group
	for name, p := range c.components {
		g.Go(func() error {
			out <- outcome{name, p.Ping(ctx)}
			return nil
		})
	}
	_ = g.Wait()
	close(out)
	for o := range out {
		if o.err != nil {
			results[o.name] = "down"
			errs[o.name] = o.err
			continue
		}
		results[o.name] = "up"
	}

	resp := Response{Status: "ready", Version: c.version, Components: results}
	status := http.StatusOK
	if len(errs) > 0 {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
		for name, err := range errs {
			log.Warn("component not ready", logger.Component(name), logger.Err(err))
		}
	}
	helpers.WriteJSON(w, status, resp)
}
