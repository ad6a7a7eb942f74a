package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exchange outcomes recorded by RecordExchange.
const (
	ExchangeCompleted    = "completed"
	ExchangeEmergency    = "emergency"
	ExchangeUnfair       = "unfair"
	ExchangeInsufficient = "insufficient"
	ExchangeFailed       = "failed"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relief",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "relief",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	exchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relief",
			Subsystem: "exchange",
			Name:      "attempts_total",
			Help:      "Resource exchanges by outcome.",
		},
		[]string{"result"},
	)

	capacityBreaches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "relief",
			Subsystem: "occupancy",
			Name:      "capacity_breaches_total",
			Help:      "Occupancy updates that reached or exceeded capacity.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		exchanges,
		capacityBreaches,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest observes one served request. path should be the route template.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordExchange counts an exchange attempt by outcome.
func RecordExchange(result string) {
	exchanges.WithLabelValues(result).Inc()
}

// RecordCapacityBreach counts a capacity breach.
func RecordCapacityBreach() {
	capacityBreaches.Inc()
}
