package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for booking creation and status transitions.
type BookingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	lapsedTotal      prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lashstudio",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Booking creation attempts by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lashstudio",
			Subsystem: "bookings",
			Name:      "transitions_total",
			Help:      "Status transition requests by transition and outcome",
		}, []string{"transition", "outcome"}),
		lapsedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lashstudio",
			Subsystem: "bookings",
			Name:      "lapsed_total",
			Help:      "Pending bookings cancelled because their slot elapsed",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.transitionsTotal, m.lapsedTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveTransition(transition, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(transition, outcome).Inc()
}

func (m *BookingMetrics) ObserveLapsed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lapsedTotal.Add(float64(n))
}
