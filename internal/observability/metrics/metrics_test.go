package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewBookingMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveTurn("awaiting_name", "ok")
	m.ObserveBooking("confirmed")
	m.ObserveReservationRace()
	m.ObserveGeneratorLatency(0.25)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) < 4 {
		t.Errorf("expected at least 4 metric families, got %d", len(families))
	}
}

func TestBookingMetrics_NilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveTurn("awaiting_name", "ok")
	m.ObserveBooking("confirmed")
	m.ObserveReservationRace()
	m.ObserveGeneratorLatency(1)
}
