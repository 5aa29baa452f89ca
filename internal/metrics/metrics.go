// Package metrics registra las métricas Prometheus del portal.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "Requests HTTP por método, ruta y status.",
	}, []string{"method", "path", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "Duración de requests HTTP.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_logins_total",
		Help: "Intentos de login por resultado (ok|bad_credentials|rate_limited).",
	}, []string{"result"})

	TokenVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_token_verifications_total",
		Help: "Verificaciones de token por tipo y resultado (ok|invalid).",
	}, []string{"kind", "result"})

	EdgeRedirects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_edge_redirects_total",
		Help: "Redirecciones del guard pre-render por motivo (login|admin_login|landing).",
	}, []string{"reason"})

	CSRFChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_csrf_checks_total",
		Help: "Verificaciones CSRF por resultado (ok|rejected).",
	}, []string{"result"})
)

// Handler expone /metrics.
func Handler() http.Handler { return promhttp.Handler() }
