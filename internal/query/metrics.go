package query

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/conduit-lang/marvelous/internal/endpoint"
)

// Metrics provides Prometheus metrics for query pages and discovery. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pagesTotal      *prometheus.CounterVec
	discoveredTotal *prometheus.CounterVec
	discoveryErrors prometheus.Counter
}

// NewMetrics registers the collectors on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marvelous_requests_total",
				Help: "Total number of API requests by resolved type and outcome",
			},
			[]string{"type", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marvelous_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		pagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marvelous_pages_total",
				Help: "Pages fetched by resolved type and classification",
			},
			[]string{"type", "classification"},
		),
		discoveredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marvelous_discovered_nodes_total",
				Help: "Resource and collection nodes extended by discovery",
			},
			[]string{"kind"},
		),
		discoveryErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "marvelous_discovery_errors_total",
				Help: "Nodes that could not be extended and became stubs",
			},
		),
	}
}

func (m *Metrics) recordRequest(t endpoint.Type, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.requestsTotal.WithLabelValues(string(t), outcome).Inc()
	m.requestDuration.WithLabelValues(string(t)).Observe(d.Seconds())
}

func (m *Metrics) recordPage(t endpoint.Type, classification string) {
	if m == nil {
		return
	}
	m.pagesTotal.WithLabelValues(string(t), classification).Inc()
}

func (m *Metrics) recordDiscovered(kind Kind) {
	if m == nil {
		return
	}
	m.discoveredTotal.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) recordDiscoveryError() {
	if m == nil {
		return
	}
	m.discoveryErrors.Inc()
}
