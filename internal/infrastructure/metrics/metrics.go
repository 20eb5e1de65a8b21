package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Posting metrics
	Postings           *prometheus.CounterVec
	PostingDuration    *prometheus.HistogramVec
	PostingAmount      *prometheus.HistogramVec
	VoucherRetries     prometheus.Counter
	SequenceContention prometheus.Counter

	// Saga metrics
	SagaCompensations    *prometheus.CounterVec
	ExternalStepFailures *prometheus.CounterVec

	// Change log metrics
	ChangeLogsRecorded *prometheus.CounterVec

	// Lock metrics
	LockAcquisitions *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates and registers all Prometheus metrics on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Posting metrics
		Postings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsledger_postings_total",
				Help: "Total ledger postings by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		PostingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsledger_posting_duration_seconds",
				Help:    "Duration of posting transactions, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		PostingAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsledger_posting_amount_cents",
				Help:    "Posted amounts in cents",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000, 100000000},
			},
			[]string{"flow_type"},
		),
		VoucherRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "opsledger_voucher_retries_total",
			Help: "Posting attempts retried after a voucher number conflict",
		}),
		SequenceContention: factory.NewCounter(prometheus.CounterOpts{
			Name: "opsledger_sequence_contention_total",
			Help: "Postings that exhausted voucher retries",
		}),

		// Saga metrics
		SagaCompensations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsledger_saga_compensations_total",
				Help: "Saga compensations run by step and outcome",
			},
			[]string{"step", "outcome"},
		),
		ExternalStepFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsledger_external_step_failures_total",
				Help: "Failed best-effort external saga steps",
			},
			[]string{"step"},
		),

		// Change log metrics
		ChangeLogsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsledger_change_logs_total",
				Help: "Change log rows recorded by entity type",
			},
			[]string{"entity_type"},
		),

		// Lock metrics
		LockAcquisitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsledger_lock_acquisitions_total",
				Help: "Distributed lock acquisitions by outcome",
			},
			[]string{"outcome"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "opsledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
	}
}
