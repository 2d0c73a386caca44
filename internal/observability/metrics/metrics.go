package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking conversation.
type BookingMetrics struct {
	turnsTotal       *prometheus.CounterVec
	bookingsTotal    *prometheus.CounterVec
	reservationRaces prometheus.Counter
	generatorLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "booking",
			Name:      "turns_total",
			Help:      "Conversation turns by step and outcome",
		}, []string{"step", "outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Completed booking attempts by outcome",
		}, []string{"outcome"}),
		reservationRaces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "booking",
			Name:      "reservation_races_total",
			Help:      "Slot reservations lost to a concurrent booking",
		}),
		generatorLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "booking",
			Name:      "confirmation_latency_seconds",
			Help:      "Latency of confirmation text generation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.reservationRaces, m.generatorLatency)
	return m
}

func (m *BookingMetrics) ObserveTurn(step, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(step, outcome).Inc()
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveReservationRace() {
	if m == nil {
		return
	}
	m.reservationRaces.Inc()
}

func (m *BookingMetrics) ObserveGeneratorLatency(seconds float64) {
	if m == nil {
		return
	}
	m.generatorLatency.Observe(seconds)
}
