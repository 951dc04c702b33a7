package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for store writes and booking flows.
type BookingMetrics struct {
	writesTotal      *prometheus.CounterVec
	bookingsTotal    *prometheus.CounterVec
	submitLatency    prometheus.Histogram
	activeSessions   prometheus.Gauge
	undoExpiredTotal prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapyspace",
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Booking store writes by operation and outcome",
		}, []string{"op", "status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapyspace",
			Subsystem: "bookings",
			Name:      "events_total",
			Help:      "Booking lifecycle events",
		}, []string{"event"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "therapyspace",
			Subsystem: "wizard",
			Name:      "submit_seconds",
			Help:      "Wall time of wizard submissions including the confirmation delay",
			Buckets:   prometheus.DefBuckets,
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "therapyspace",
			Subsystem: "wizard",
			Name:      "active_sessions",
			Help:      "Open wizard sessions",
		}),
		undoExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "therapyspace",
			Subsystem: "mybookings",
			Name:      "undo_expired_total",
			Help:      "Pending undo tokens dropped by the sweeper",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.writesTotal, m.bookingsTotal, m.submitLatency, m.activeSessions, m.undoExpiredTotal)
	return m
}

func (m *BookingMetrics) ObserveWrite(op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.writesTotal.WithLabelValues(op, status).Inc()
}

func (m *BookingMetrics) ObserveEvent(event string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(event).Inc()
}

func (m *BookingMetrics) ObserveSubmit(seconds float64) {
	if m == nil {
		return
	}
	m.submitLatency.Observe(seconds)
}

func (m *BookingMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *BookingMetrics) ObserveUndoExpired(n int) {
	if m == nil {
		return
	}
	m.undoExpiredTotal.Add(float64(n))
}
