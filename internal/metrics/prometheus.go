package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements Recorder and prometheus.Collector.
type Prometheus struct {
	ledgerOps       *prometheus.CounterVec
	ledgerLatency   *prometheus.HistogramVec
	publishFailures *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// NewPrometheus creates the collectors under namespace. Register the result
// with a prometheus.Registerer before scraping.
func NewPrometheus(namespace string) *Prometheus {
	return &Prometheus{
		ledgerOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_operations_total",
				Help:      "Ledger operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		ledgerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ledger_operation_duration_seconds",
				Help:      "Ledger operation latency including commit or rollback",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		publishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_publish_failures_total",
				Help:      "Ledger events that could not be published",
			},
			[]string{"topic"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (p *Prometheus) ObserveLedgerOperation(op, outcome string, duration time.Duration) {
	p.ledgerOps.WithLabelValues(op, outcome).Inc()
	p.ledgerLatency.WithLabelValues(op).Observe(duration.Seconds())
}

func (p *Prometheus) IncPublishFailure(topic string) {
	p.publishFailures.WithLabelValues(topic).Inc()
}

func (p *Prometheus) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Describe implements prometheus.Collector.
func (p *Prometheus) Describe(ch chan<- *prometheus.Desc) {
	p.ledgerOps.Describe(ch)
	p.ledgerLatency.Describe(ch)
	p.publishFailures.Describe(ch)
	p.httpRequests.Describe(ch)
	p.httpLatency.Describe(ch)
}

// Collect implements prometheus.Collector.
func (p *Prometheus) Collect(ch chan<- prometheus.Metric) {
	p.ledgerOps.Collect(ch)
	p.ledgerLatency.Collect(ch)
	p.publishFailures.Collect(ch)
	p.httpRequests.Collect(ch)
	p.httpLatency.Collect(ch)
}

var _ Recorder = (*Prometheus)(nil)
var _ prometheus.Collector = (*Prometheus)(nil)
