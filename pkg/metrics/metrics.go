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

const namespace = "faultmock"

// Outcome label values.
const (
	OutcomeDeliver   = "deliver"
	OutcomeNotFound  = "not_found"
	OutcomeFailure   = "failure"
	OutcomeTimeout   = "timeout"
	OutcomeReset     = "reset"
	OutcomeSilent    = "silent"
	OutcomeCancelled = "cancelled"
)

// StatusNone labels requests that never got a response.
const StatusNone = "none"

// Metrics holds the collectors of one server.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	FaultsTotal       *prometheus.CounterVec
	ActiveConnections prometheus.Gauge
	RoutesLoaded      prometheus.Gauge
}

// New creates the collectors in a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests handled",
			},
			[]string{"method", "outcome", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request handling time in seconds, injected delays included",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		FaultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "faults_total",
				Help:      "Total number of injected faults",
			},
			[]string{"kind"},
		),
		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_connections",
				Help:      "Number of open client connections",
			},
		),
		RoutesLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "routes_loaded",
				Help:      "Number of route definitions in the current snapshot",
			},
		),
	}
}

// ObserveFaultState registers gauges that read the number of requests in a
// fault wait and in a silent hold when scraped.
func (m *Metrics) ObserveFaultState(waiting, held func() int64) {
	factory := promauto.With(m.registry)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fault_waiting",
		Help:      "Requests waiting on a scheduled fault or latency",
	}, func() float64 { return float64(waiting()) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fault_held",
		Help:      "Requests held open by a silent fault",
	}, func() float64 { return float64(held()) })
}

// ObserveRequest records one finished request. status 0 means no response
// was written.
func (m *Metrics) ObserveRequest(method, outcome string, status int, elapsed time.Duration) {
	code := StatusNone
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, outcome, code).Inc()
	m.RequestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
