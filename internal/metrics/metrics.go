// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. All Inc helpers are safe on a nil
// receiver so services can run without metrics in tests.
type Metrics struct {
	EmailsGenerated   prometheus.Counter
	EmailsSent        prometheus.Counter
	EmailsBounced     prometheus.Counter
	QuotaRejections   prometheus.Counter
	SchedulesCreated  prometheus.Counter
	QueueItemsDrained prometheus.Counter
	StatusTransitions *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	return &Metrics{
		EmailsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coldpilot_emails_generated_total",
			Help: "Total number of emails generated",
		}),
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coldpilot_emails_sent_total",
			Help: "Total number of emails delivered",
		}),
		EmailsBounced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coldpilot_emails_bounced_total",
			Help: "Total number of hard delivery failures",
		}),
		QuotaRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coldpilot_quota_rejections_total",
			Help: "Total number of operations rejected by quota",
		}),
		SchedulesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coldpilot_schedules_created_total",
			Help: "Total number of committed scheduling runs",
		}),
		QueueItemsDrained: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coldpilot_queue_items_drained_total",
			Help: "Total number of queue items processed by the worker",
		}),
		StatusTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coldpilot_status_transitions_total",
				Help: "Status transitions by target status and provenance",
			},
			[]string{"to", "provenance"},
		),
	}
}

func (m *Metrics) IncGenerated() {
	if m != nil {
		m.EmailsGenerated.Inc()
	}
}

func (m *Metrics) IncSent() {
	if m != nil {
		m.EmailsSent.Inc()
	}
}

func (m *Metrics) IncBounced() {
	if m != nil {
		m.EmailsBounced.Inc()
	}
}

func (m *Metrics) IncQuotaRejection() {
	if m != nil {
		m.QuotaRejections.Inc()
	}
}

func (m *Metrics) IncScheduleCreated() {
	if m != nil {
		m.SchedulesCreated.Inc()
	}
}

func (m *Metrics) IncDrained() {
	if m != nil {
		m.QueueItemsDrained.Inc()
	}
}

func (m *Metrics) IncTransition(to, provenance string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(to, provenance).Inc()
	}
}
