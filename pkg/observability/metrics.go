package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// SSO flow metrics
	LoginInitiationsTotal *prometheus.CounterVec
	CallbackOutcomesTotal *prometheus.CounterVec
	UsersProvisionedTotal *prometheus.CounterVec
	MetadataRequestsTotal prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portico_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portico_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginInitiationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portico_sso_login_initiations_total",
				Help: "SSO login initiations by provider",
			},
			[]string{"provider"},
		),
		CallbackOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portico_sso_callback_outcomes_total",
				Help: "SSO callback outcomes by provider and result",
			},
			[]string{"provider", "outcome"},
		),
		UsersProvisionedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portico_sso_users_provisioned_total",
				Help: "Users created via JIT provisioning by provider",
			},
			[]string{"provider"},
		),
		MetadataRequestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portico_sso_metadata_requests_total",
				Help: "Requests for the SP metadata document",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "portico_db_connections_active",
				Help: "Active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "portico_db_connections_idle",
				Help: "Idle database connections",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginInitiationsTotal,
		m.CallbackOutcomesTotal,
		m.UsersProvisionedTotal,
		m.MetadataRequestsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns the /metrics HTTP handler backed by this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records a completed HTTP request
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveCallback records a callback outcome for a provider
func (m *Metrics) ObserveCallback(provider, outcome string) {
	m.CallbackOutcomesTotal.WithLabelValues(provider, outcome).Inc()
}
