package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors live in a standalone package so providers, services and the HTTP
// layer can record without importing each other. Observations before Register
// are kept in the collectors and exported once registered.

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by method, route and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests currently being served",
	})

	ProviderCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_calls_total",
		Help: "Outbound identity provider calls, by provider, operation and result",
	}, []string{"provider", "op", "result"}) // result: ok|error

	ProviderCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provider_call_duration_seconds",
		Help:    "Latency of outbound identity provider calls",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"provider", "op"})

	AuthFlowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_flows_total",
		Help: "Completed authentication flows, by flow, provider and outcome",
	}, []string{"flow", "provider", "outcome"}) // flow: callback|refresh|userinfo

	SessionTokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_tokens_issued_total",
		Help: "Session token pairs issued, by provider",
	}, []string{"provider"})

	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"path"})
)

// Register registers every collector on reg (default registerer when nil)
// and returns the /metrics handler.
func Register(reg prometheus.Registerer) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		HTTPRequestsTotal, HTTPRequestDuration, HTTPInflight,
		ProviderCallsTotal, ProviderCallDuration,
		AuthFlowsTotal, SessionTokensIssued, RateLimited,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

// ObserveProviderCall records one outbound call to an identity provider.
func ObserveProviderCall(provider, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ProviderCallsTotal.WithLabelValues(provider, op, result).Inc()
	ProviderCallDuration.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
}

// ObserveFlow records the outcome of an orchestrated flow.
func ObserveFlow(flow, provider, outcome string) {
	AuthFlowsTotal.WithLabelValues(flow, provider, outcome).Inc()
}

// ObserveHTTP records a served request. path should already be normalized.
func ObserveHTTP(method, path string, status int, d time.Duration) {
	if status == 0 {
		status = http.StatusOK
	}
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

var (
	uuidSegmentRE  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	numSegmentRE   = regexp.MustCompile(`^[0-9]+$`)
	tokenSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// NormalizePath collapses ids and tokens in a path so labels stay bounded.
// Used when no route pattern is available.
func NormalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if uuidSegmentRE.MatchString(seg) || numSegmentRE.MatchString(seg) || tokenSegmentRE.MatchString(seg) {
			seg = ":param"
		}
		out = append(out, seg)
	}
	return "/" + strings.Join(out, "/")
}
