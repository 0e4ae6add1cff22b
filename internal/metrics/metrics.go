// Package metrics holds the Prometheus collectors for HTTP traffic and
// table queries.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	// RequestTotal counts HTTP requests by method, route pattern and status.
	RequestTotal *prometheus.CounterVec
	// RequestDuration is the latency of HTTP requests.
	RequestDuration *prometheus.HistogramVec
	// QueryTotal counts table queries by collection and result code.
	QueryTotal *prometheus.CounterVec
	// QueryDuration is the latency of table queries.
	QueryDuration *prometheus.HistogramVec
	// EventsTotal counts published bus events by topic.
	EventsTotal *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showcase_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		QueryTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_queries_total",
				Help: "Total number of table queries by result code",
			},
			[]string{"collection", "code"},
		),
		QueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showcase_query_duration_seconds",
				Help:    "Table query latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
			},
			[]string{"collection"},
		),
		EventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_events_published_total",
				Help: "Total number of events published on the bus",
			},
			[]string{"topic"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveQuery implements query.Observer.
func (m *Metrics) ObserveQuery(collection, code string, elapsed time.Duration) {
	m.QueryTotal.WithLabelValues(collection, code).Inc()
	m.QueryDuration.WithLabelValues(collection).Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request. route is the mux pattern,
// not the raw path, to bound label cardinality.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncEvent counts one published event.
func (m *Metrics) IncEvent(topic string) {
	m.EventsTotal.WithLabelValues(topic).Inc()
}
