package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsStarted   prometheus.Counter
	RegistrationsCompleted prometheus.Counter
	DuplicatePhoneRejects  prometheus.Counter
	CodesSent              prometheus.Counter
	CodeConfirmFailures    prometheus.Counter
	Allocations            prometheus.Counter
	AllocationRetries      prometheus.Counter
	AllocationFailures     prometheus.Counter
	AllocationDuration     prometheus.Histogram
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers metrics on a caller-supplied registerer so tests can use
// a fresh registry per suite.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "membergate_registrations_started_total",
			Help: "Total number of wizard runs started.",
		}),
		RegistrationsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "membergate_registrations_completed_total",
			Help: "Total number of members created.",
		}),
		DuplicatePhoneRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "membergate_duplicate_phone_rejects_total",
			Help: "Total registrations halted by the duplicate phone pre-check.",
		}),
		CodesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "membergate_verification_codes_sent_total",
			Help: "Total one-time codes sent.",
		}),
		CodeConfirmFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "membergate_code_confirm_failures_total",
			Help: "Total failed one-time code confirmations.",
		}),
		Allocations: factory.NewCounter(prometheus.CounterOpts{
			Name: "membergate_member_id_allocations_total",
			Help: "Total member IDs minted.",
		}),
		AllocationRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "membergate_member_id_allocation_retries_total",
			Help: "Total conflicted counter transactions that were retried.",
		}),
		AllocationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "membergate_member_id_allocation_failures_total",
			Help: "Total allocations that exhausted the retry budget.",
		}),
		AllocationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "membergate_member_id_allocation_duration_seconds",
			Help:    "Latency of member ID allocation including retries.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveAllocation records one allocation latency sample.
func (m *Metrics) ObserveAllocation(d time.Duration) {
	m.AllocationDuration.Observe(d.Seconds())
}
