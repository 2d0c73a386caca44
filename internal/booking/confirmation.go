package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/angkorcare/hospital-assistant/internal/observability/metrics"
	"github.com/angkorcare/hospital-assistant/pkg/logging"
)

const confirmationPrompt = "Generate a confirmation message for %s booking an appointment with %s on %s at %s."

// ConfirmationGenerator produces the patient-facing confirmation text for a
// committed booking. Generator failures are downgraded to a canned message:
// the slot reservation has already committed, so the booking must still be
// reported as a success.
type ConfirmationGenerator struct {
	generator TextGenerator
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

// NewConfirmationGenerator creates a confirmation generator. generator may be
// nil, in which case the fallback text is always used.
func NewConfirmationGenerator(generator TextGenerator, m *metrics.BookingMetrics, logger *logging.Logger) *ConfirmationGenerator {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConfirmationGenerator{generator: generator, metrics: m, logger: logger}
}

// Confirm returns confirmation text for the booking, falling back to a
// generic message when the external generator fails.
func (g *ConfirmationGenerator) Confirm(ctx context.Context, b Booking) string {
	if g.generator == nil {
		return fallbackConfirmation(b)
	}

	prompt := fmt.Sprintf(confirmationPrompt, b.PatientName, b.Provider, b.Date, b.Slot)

	start := time.Now()
	text, err := g.generator.Generate(ctx, prompt)
	g.metrics.ObserveGeneratorLatency(time.Since(start).Seconds())

	if err != nil || text == "" {
		g.logger.Error("confirmation generation failed, using fallback",
			"error", err,
			"doctor", b.Provider,
		)
		return fallbackConfirmation(b)
	}
	return text
}

func fallbackConfirmation(b Booking) string {
	return fmt.Sprintf(
		"Your appointment with %s on %s at %s is confirmed. Thank you, %s! Please arrive 15 minutes early and bring any relevant medical records.",
		b.Provider, b.Date, b.Slot, b.PatientName,
	)
}
