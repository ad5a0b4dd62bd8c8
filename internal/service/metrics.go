package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Admission outcomes, used as the "outcome" label.
const (
	outcomeAdmitted = "admitted"
	outcomeRejected = "slot_taken"
	outcomeInvalid  = "invalid"
	outcomeFailed   = "failed"
)

// Metrics structure for the booking Prometheus metrics
type Metrics struct {
	Admissions        *prometheus.CounterVec
	AdmissionDuration prometheus.Histogram
	StatusUpdates     *prometheus.CounterVec
	ExpiredPending    prometheus.Counter
}

// NewMetrics registers the booking metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Admissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "court_booking_admissions_total",
			Help: "Booking admission attempts by outcome",
		}, []string{"outcome"}),

		AdmissionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "court_booking_admission_duration_seconds",
			Help:    "Time spent admitting a booking, lock wait included",
			Buckets: prometheus.DefBuckets,
		}),

		StatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "court_booking_status_updates_total",
			Help: "Booking status transitions by target status",
		}, []string{"status"}),

		ExpiredPending: factory.NewCounter(prometheus.CounterOpts{
			Name: "court_booking_expired_pending_total",
			Help: "Pending bookings cancelled by the expiry job",
		}),
	}
}

func (m *Metrics) observeAdmission(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Admissions.WithLabelValues(outcome).Inc()
	m.AdmissionDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeStatusUpdate(status string) {
	if m == nil {
		return
	}
	m.StatusUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) observeExpired(n int) {
	if m == nil {
		return
	}
	m.ExpiredPending.Add(float64(n))
}
