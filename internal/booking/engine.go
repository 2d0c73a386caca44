package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angkorcare/hospital-assistant/internal/availability"
	"github.com/angkorcare/hospital-assistant/internal/observability/metrics"
	"github.com/angkorcare/hospital-assistant/internal/session"
	"github.com/angkorcare/hospital-assistant/pkg/logging"
)

// errTurnRejected aborts a session update without persisting anything; the
// user-facing outcome travels in the captured TurnError.
var errTurnRejected = errors.New("booking: turn rejected")

// Engine drives the multi-turn booking conversation. Each turn accepts
// exactly one new fact, validates it against live availability, and advances
// the session. The terminal turn atomically reserves the slot before any
// slow external call is made; confirmation generation and document rendering
// happen with no store lock held.
type Engine struct {
	availability *availability.Store
	sessions     session.Store
	confirm      *ConfirmationGenerator
	renderer     DocumentRenderer
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
}

// NewEngine creates a booking conversation engine. renderer may be nil, in
// which case completed bookings carry no document.
func NewEngine(
	av *availability.Store,
	sessions session.Store,
	confirm *ConfirmationGenerator,
	renderer DocumentRenderer,
	m *metrics.BookingMetrics,
	logger *logging.Logger,
) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		availability: av,
		sessions:     sessions,
		confirm:      confirm,
		renderer:     renderer,
		metrics:      m,
		logger:       logger,
	}
}

// Advance processes one conversation turn. An empty sessionID starts a new
// conversation. Recoverable failures return *TurnError; an unknown or
// expired identifier returns session.ErrSessionNotFound.
func (e *Engine) Advance(ctx context.Context, sessionID string, in TurnInput) (*TurnResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return e.start(ctx)
	}

	var (
		turnErr  *TurnError
		result   TurnResult
		booking  Booking
		stepSeen = "unknown"
	)

	sess, err := e.sessions.Update(ctx, sessionID, func(s *session.Session) error {
		stepSeen = s.Step.String()
		switch s.Step {
		case session.StepName:
			return e.collectName(s, in, &result, &turnErr)
		case session.StepProvider:
			return e.collectProvider(s, in, &result, &turnErr)
		case session.StepDate:
			return e.collectDate(s, in, &result, &turnErr)
		case session.StepSlot:
			return e.collectSlot(s, in, &booking, &turnErr)
		default:
			// A completed session should already have been removed.
			return session.ErrSessionNotFound
		}
	})

	switch {
	case err == nil:
	case errors.Is(err, errTurnRejected):
		e.metrics.ObserveTurn(stepSeen, "rejected")
		return nil, turnErr
	case errors.Is(err, session.ErrSessionNotFound):
		return nil, err
	default:
		return nil, fmt.Errorf("booking: advance session %s: %w", sessionID, err)
	}

	// A nil error with a populated turnErr means the session was rewound
	// (lost reservation race with an emptied date) and the rewind persisted.
	if turnErr != nil {
		e.metrics.ObserveTurn(session.StepSlot.String(), "rejected")
		return nil, turnErr
	}

	if sess.Step == session.StepDone {
		return e.complete(ctx, sess.ID, booking)
	}

	e.metrics.ObserveTurn(sess.Step.String(), "ok")
	result.SessionID = sess.ID
	return &result, nil
}

func (e *Engine) start(ctx context.Context) (*TurnResult, error) {
	sess, err := e.sessions.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: create session: %w", err)
	}
	e.metrics.ObserveTurn("start", "ok")
	return &TurnResult{
		SessionID: sess.ID,
		Message:   "Hello! I can help you book an appointment. What is your name?",
	}, nil
}

func (e *Engine) collectName(s *session.Session, in TurnInput, result *TurnResult, turnErr **TurnError) error {
	name := in.valueFor(session.StepName)
	if len(name) < 2 {
		*turnErr = &TurnError{
			Kind:      KindValidation,
			SessionID: s.ID,
			Prompt:    "Please tell me your full name (at least 2 characters).",
		}
		return errTurnRejected
	}
	s.PatientName = name
	s.Step = session.StepProvider
	result.Message = fmt.Sprintf(
		"Thanks, %s. Which doctor would you like to see? Our providers: %s.",
		name, strings.Join(e.availability.ListProviders(), ", "),
	)
	return nil
}

func (e *Engine) collectProvider(s *session.Session, in TurnInput, result *TurnResult, turnErr **TurnError) error {
	token := in.valueFor(session.StepProvider)
	providerID, err := e.availability.Resolve(token)
	if err != nil {
		*turnErr = &TurnError{
			Kind:      KindValidation,
			SessionID: s.ID,
			Prompt: fmt.Sprintf(
				"I couldn't find that doctor. Our providers: %s.",
				strings.Join(e.availability.ListProviders(), ", "),
			),
		}
		return errTurnRejected
	}

	dates, err := e.availability.ListDates(providerID)
	if err != nil {
		return err
	}
	s.Provider = providerID
	s.Step = session.StepDate
	result.Message = fmt.Sprintf(
		"%s is available on: %s. Which date works for you?",
		providerID, strings.Join(dates, ", "),
	)
	return nil
}

func (e *Engine) collectDate(s *session.Session, in TurnInput, result *TurnResult, turnErr **TurnError) error {
	date := in.valueFor(session.StepDate)
	slots, err := e.availability.ListSlots(s.Provider, date)
	if err != nil {
		if errors.Is(err, availability.ErrDateNotFound) || errors.Is(err, availability.ErrProviderNotFound) {
			dates, listErr := e.availability.ListDates(s.Provider)
			if listErr != nil {
				return listErr
			}
			*turnErr = &TurnError{
				Kind:      KindValidation,
				SessionID: s.ID,
				Prompt: fmt.Sprintf(
					"%s has no availability on that date. Open dates: %s.",
					s.Provider, strings.Join(dates, ", "),
				),
			}
			return errTurnRejected
		}
		return err
	}
	s.Date = date
	s.Step = session.StepSlot
	result.Message = fmt.Sprintf(
		"Available times on %s: %s. Which time would you like?",
		date, strings.Join(slots, ", "),
	)
	return nil
}

func (e *Engine) collectSlot(s *session.Session, in TurnInput, booking *Booking, turnErr **TurnError) error {
	slot := in.valueFor(session.StepSlot)

	slots, err := e.availability.ListSlots(s.Provider, s.Date)
	if err != nil && !errors.Is(err, availability.ErrDateNotFound) {
		return err
	}
	if err == nil && !contains(slots, slot) {
		*turnErr = &TurnError{
			Kind:      KindValidation,
			SessionID: s.ID,
			Prompt: fmt.Sprintf(
				"That time isn't available. Open times on %s: %s.",
				s.Date, strings.Join(slots, ", "),
			),
		}
		return errTurnRejected
	}

	if err == nil {
		err = e.availability.Reserve(s.Provider, s.Date, slot)
	}
	switch {
	case err == nil:
		s.Slot = slot
		s.Step = session.StepDone
		*booking = Booking{
			Provider:    s.Provider,
			PatientName: s.PatientName,
			Date:        s.Date,
			Slot:        slot,
			Status:      StatusConfirmed,
		}
		return nil

	case errors.Is(err, availability.ErrSlotTaken):
		remaining, listErr := e.availability.ListSlots(s.Provider, s.Date)
		if listErr == nil && len(remaining) > 0 {
			e.metrics.ObserveReservationRace()
			*turnErr = &TurnError{
				Kind:      KindSlotUnavailable,
				SessionID: s.ID,
				Prompt: fmt.Sprintf(
					"Sorry, that time was just booked. Remaining times on %s: %s.",
					s.Date, strings.Join(remaining, ", "),
				),
			}
			return errTurnRejected
		}
		fallthrough

	case errors.Is(err, availability.ErrDateNotFound):
		// The date emptied under us: rewind to date selection and persist
		// the rewind so the next turn collects a fresh date.
		e.metrics.ObserveReservationRace()
		dates, listErr := e.availability.ListDates(s.Provider)
		if listErr != nil {
			return listErr
		}
		emptiedDate := s.Date
		s.Date = ""
		s.Step = session.StepDate
		*turnErr = &TurnError{
			Kind:      KindSlotUnavailable,
			SessionID: s.ID,
			Prompt: fmt.Sprintf(
				"Sorry, %s has no more openings on %s. Available dates: %s.",
				s.Provider, emptiedDate, strings.Join(dates, ", "),
			),
		}
		return nil

	default:
		return err
	}
}

// complete runs the slow tail of a committed booking: confirmation text,
// document rendering, then session teardown. Failures here never undo the
// reservation.
func (e *Engine) complete(ctx context.Context, sessionID string, b Booking) (*TurnResult, error) {
	confirmation := e.confirm.Confirm(ctx, b)

	var document string
	if e.renderer != nil {
		name, err := e.renderer.Render(ctx, b, confirmation)
		if err != nil {
			e.logger.Error("document rendering failed",
				"error", err,
				"doctor", b.Provider,
				"date", b.Date,
			)
		} else {
			document = name
		}
	}

	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		e.logger.Error("failed to delete completed session", "error", err, "session_id", sessionID)
	}

	e.metrics.ObserveTurn(session.StepSlot.String(), "ok")
	e.metrics.ObserveBooking("confirmed")
	e.logger.Info("appointment booked",
		"doctor", b.Provider,
		"date", b.Date,
		"time", b.Slot,
	)

	return &TurnResult{
		SessionID:    sessionID,
		Message:      "Appointment booked successfully",
		Done:         true,
		Booking:      &b,
		Confirmation: confirmation,
		Document:     document,
	}, nil
}

// valueFor picks the input field matching the current step. When the tagged
// field is empty but exactly one field was supplied, that value is used, so
// clients may send a single untagged fact per turn.
func (in TurnInput) valueFor(step session.Step) string {
	var tagged string
	switch step {
	case session.StepName:
		tagged = in.Name
	case session.StepProvider:
		tagged = in.Doctor
	case session.StepDate:
		tagged = in.Date
	case session.StepSlot:
		tagged = in.Time
	}
	if v := strings.TrimSpace(tagged); v != "" {
		return v
	}

	var supplied []string
	for _, v := range []string{in.Name, in.Doctor, in.Date, in.Time} {
		if v = strings.TrimSpace(v); v != "" {
			supplied = append(supplied, v)
		}
	}
	if len(supplied) == 1 {
		return supplied[0]
	}
	return ""
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
