package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angkorcare/hospital-assistant/internal/availability"
	"github.com/angkorcare/hospital-assistant/internal/observability/metrics"
	"github.com/angkorcare/hospital-assistant/internal/session"
	"github.com/angkorcare/hospital-assistant/pkg/logging"
)

type scriptedGenerator struct {
	text  string
	err   error
	calls int
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	return g.text, g.err
}

type fakeRenderer struct {
	name string
	err  error
}

func (r *fakeRenderer) Render(ctx context.Context, b Booking, confirmation string) (string, error) {
	return r.name, r.err
}

type testEnv struct {
	engine       *Engine
	availability *availability.Store
	sessions     *session.MemoryStore
	generator    *scriptedGenerator
	renderer     *fakeRenderer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	av := availability.NewStore(availability.DefaultProviders()...)
	sessions := session.NewMemoryStore(0)
	generator := &scriptedGenerator{text: "See you soon, Jane!"}
	renderer := &fakeRenderer{name: "appointment.pdf"}
	m := metrics.NewBookingMetrics(prometheus.NewRegistry())
	logger := logging.Default()

	confirm := NewConfirmationGenerator(generator, m, logger)
	engine := NewEngine(av, sessions, confirm, renderer, m, logger)
	return &testEnv{
		engine:       engine,
		availability: av,
		sessions:     sessions,
		generator:    generator,
		renderer:     renderer,
	}
}

// runToSlotStep drives a fresh session up to the slot step.
func (env *testEnv) runToSlotStep(t *testing.T, name, doctor, date string) string {
	t.Helper()
	ctx := context.Background()

	res, err := env.engine.Advance(ctx, "", TurnInput{})
	require.NoError(t, err)

	res, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Name: name})
	require.NoError(t, err)
	res, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Doctor: doctor})
	require.NoError(t, err)
	res, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Date: date})
	require.NoError(t, err)
	return res.SessionID
}

func TestAdvance_StartCreatesSession(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.engine.Advance(context.Background(), "", TurnInput{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Contains(t, res.Message, "name")
	assert.False(t, res.Done)

	sess, err := env.sessions.Get(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StepName, sess.Step)
}

func TestAdvance_FullHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.runToSlotStep(t, "Jane Doe", "sopheak", "2025-03-18")
	res, err := env.engine.Advance(ctx, id, TurnInput{Time: "10:00 AM"})
	require.NoError(t, err)

	assert.True(t, res.Done)
	assert.Equal(t, "Appointment booked successfully", res.Message)
	assert.Equal(t, "See you soon, Jane!", res.Confirmation)
	assert.Equal(t, "appointment.pdf", res.Document)
	require.NotNil(t, res.Booking)
	assert.Equal(t, "Dr. Sopheak", res.Booking.Provider)
	assert.Equal(t, "Jane Doe", res.Booking.PatientName)
	assert.Equal(t, "2025-03-18", res.Booking.Date)
	assert.Equal(t, "10:00 AM", res.Booking.Slot)
	assert.Equal(t, StatusConfirmed, res.Booking.Status)

	// The slot is gone from availability.
	slots, err := env.availability.ListSlots("Dr. Sopheak", "2025-03-18")
	require.NoError(t, err)
	assert.NotContains(t, slots, "10:00 AM")

	// The session is gone too.
	_, err = env.sessions.Get(ctx, id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestAdvance_RepeatSequenceFailsAtSlotStep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.runToSlotStep(t, "Jane Doe", "sopheak", "2025-03-18")
	_, err := env.engine.Advance(ctx, first, TurnInput{Time: "10:00 AM"})
	require.NoError(t, err)

	// Same sequence again: must fail at the slot step with an updated list.
	second := env.runToSlotStep(t, "Jane Doe", "sopheak", "2025-03-18")
	_, err = env.engine.Advance(ctx, second, TurnInput{Time: "10:00 AM"})

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.NotContains(t, turnErr.Prompt, "10:00 AM")
	assert.Contains(t, turnErr.Prompt, "11:00 AM")
}

func TestAdvance_NameTooShort(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.Advance(ctx, "", TurnInput{})
	require.NoError(t, err)

	_, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Name: " J "})
	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, KindValidation, turnErr.Kind)

	sess, err := env.sessions.Get(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StepName, sess.Step)
	assert.Empty(t, sess.PatientName)
}

func TestAdvance_UnknownProviderKeepsAccumulatedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.Advance(ctx, "", TurnInput{})
	require.NoError(t, err)
	res, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Name: "Jane Doe"})
	require.NoError(t, err)

	_, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Doctor: "Dr. Nobody"})
	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, KindValidation, turnErr.Kind)
	assert.Contains(t, turnErr.Prompt, "Dr. Sopheak")
	assert.Contains(t, turnErr.Prompt, "Dr. Leakena")

	sess, err := env.sessions.Get(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StepProvider, sess.Step)
	assert.Equal(t, "Jane Doe", sess.PatientName)
	assert.Empty(t, sess.Provider)
}

func TestAdvance_HonorificAgnosticProviderMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, token := range []string{"sopheak", "Sopheak", "Dr. Sopheak"} {
		res, err := env.engine.Advance(ctx, "", TurnInput{})
		require.NoError(t, err)
		res, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Name: "Jane Doe"})
		require.NoError(t, err)
		res, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Doctor: token})
		require.NoError(t, err, "token %q", token)

		sess, err := env.sessions.Get(ctx, res.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "Dr. Sopheak", sess.Provider, "token %q", token)
	}
}

func TestAdvance_InvalidDateRepromptsWithOpenDates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.Advance(ctx, "", TurnInput{})
	require.NoError(t, err)
	res, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Name: "Jane Doe"})
	require.NoError(t, err)
	res, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Doctor: "sopheak"})
	require.NoError(t, err)

	_, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Date: "2030-01-01"})
	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Contains(t, turnErr.Prompt, "2025-03-18")
	assert.Contains(t, turnErr.Prompt, "2025-03-19")

	sess, _ := env.sessions.Get(ctx, res.SessionID)
	assert.Equal(t, session.StepDate, sess.Step)
	assert.Empty(t, sess.Date)
}

func TestAdvance_InvalidSlotReprompts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.runToSlotStep(t, "Jane Doe", "sopheak", "2025-03-18")
	_, err := env.engine.Advance(ctx, id, TurnInput{Time: "5:00 PM"})

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, KindValidation, turnErr.Kind)
	assert.Contains(t, turnErr.Prompt, "10:00 AM")

	sess, _ := env.sessions.Get(ctx, id)
	assert.Equal(t, session.StepSlot, sess.Step)
	assert.Empty(t, sess.Slot)
}

func TestAdvance_UnknownSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.Advance(context.Background(), "no-such-session", TurnInput{Name: "Jane Doe"})
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestAdvance_CompletedSessionIsInvalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.runToSlotStep(t, "Jane Doe", "sopheak", "2025-03-18")
	_, err := env.engine.Advance(ctx, id, TurnInput{Time: "10:00 AM"})
	require.NoError(t, err)

	_, err = env.engine.Advance(ctx, id, TurnInput{Time: "11:00 AM"})
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestAdvance_DateEmptiedRewindsToDateStep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Dr. Leakena has two slots on 2025-03-18; drain the date down to one
	// and let a rival book the last slot while our session sits at the
	// slot step.
	id := env.runToSlotStep(t, "Jane Doe", "leakena", "2025-03-18")
	require.NoError(t, env.availability.Reserve("Dr. Leakena", "2025-03-18", "9:00 AM"))
	require.NoError(t, env.availability.Reserve("Dr. Leakena", "2025-03-18", "12:00 PM"))

	_, err := env.engine.Advance(ctx, id, TurnInput{Time: "9:00 AM"})
	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, KindSlotUnavailable, turnErr.Kind)
	assert.Contains(t, turnErr.Prompt, "2025-03-19")

	// The rewind persisted: the session re-collects the date.
	sess, err := env.sessions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.StepDate, sess.Step)
	assert.Empty(t, sess.Date)
	assert.Equal(t, "Jane Doe", sess.PatientName)
	assert.Equal(t, "Dr. Leakena", sess.Provider)
}

func TestAdvance_ConcurrentBookingsOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const rivals = 8
	ids := make([]string, rivals)
	for i := range ids {
		ids[i] = env.runToSlotStep(t, "Jane Doe", "sopheak", "2025-03-18")
	}

	var wg sync.WaitGroup
	outcomes := make(chan error, rivals)
	for _, id := range ids {
		wg.Add(1)
		go func(sessionID string) {
			defer wg.Done()
			_, err := env.engine.Advance(ctx, sessionID, TurnInput{Time: "2:00 PM"})
			outcomes <- err
		}(id)
	}
	wg.Wait()
	close(outcomes)

	var wins, rejections int
	for err := range outcomes {
		if err == nil {
			wins++
			continue
		}
		var turnErr *TurnError
		if errors.As(err, &turnErr) {
			rejections++
			continue
		}
		t.Errorf("unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins, "exactly one booking must win the slot")
	assert.Equal(t, rivals-1, rejections)
}

func TestAdvance_GeneratorFailureStillBooks(t *testing.T) {
	env := newTestEnv(t)
	env.generator.text = ""
	env.generator.err = errors.New("model timeout")
	ctx := context.Background()

	id := env.runToSlotStep(t, "Jane Doe", "sopheak", "2025-03-18")
	res, err := env.engine.Advance(ctx, id, TurnInput{Time: "10:00 AM"})
	require.NoError(t, err)

	assert.True(t, res.Done)
	assert.Contains(t, res.Confirmation, "Dr. Sopheak")
	assert.Contains(t, res.Confirmation, "10:00 AM")

	// The reservation committed despite the generation failure.
	slots, err := env.availability.ListSlots("Dr. Sopheak", "2025-03-18")
	require.NoError(t, err)
	assert.NotContains(t, slots, "10:00 AM")
}

func TestAdvance_RenderFailureOmitsDocument(t *testing.T) {
	env := newTestEnv(t)
	env.renderer.err = errors.New("disk full")
	env.renderer.name = ""
	ctx := context.Background()

	id := env.runToSlotStep(t, "Jane Doe", "sopheak", "2025-03-18")
	res, err := env.engine.Advance(ctx, id, TurnInput{Time: "10:00 AM"})
	require.NoError(t, err)

	assert.True(t, res.Done)
	assert.Empty(t, res.Document)
	assert.NotEmpty(t, res.Confirmation)
}

func TestAdvance_SingleUntaggedValuePerTurn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.Advance(ctx, "", TurnInput{})
	require.NoError(t, err)

	// A client that always sends the value in the wrong field still works
	// as long as exactly one value is supplied per turn.
	res, err = env.engine.Advance(ctx, res.SessionID, TurnInput{Doctor: "Jane Doe"})
	require.NoError(t, err)

	sess, err := env.sessions.Get(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", sess.PatientName)
	assert.Equal(t, session.StepProvider, sess.Step)
}

func TestConfirmationGenerator_UsesGeneratorOutput(t *testing.T) {
	gen := &scriptedGenerator{text: "Looking forward to seeing you!"}
	cg := NewConfirmationGenerator(gen, nil, nil)

	text := cg.Confirm(context.Background(), Booking{
		Provider: "Dr. Sopheak", PatientName: "Jane Doe", Date: "2025-03-18", Slot: "10:00 AM",
	})
	assert.Equal(t, "Looking forward to seeing you!", text)
	assert.Equal(t, 1, gen.calls)
}

func TestConfirmationGenerator_NilGeneratorFallsBack(t *testing.T) {
	cg := NewConfirmationGenerator(nil, nil, nil)
	text := cg.Confirm(context.Background(), Booking{
		Provider: "Dr. Sopheak", PatientName: "Jane Doe", Date: "2025-03-18", Slot: "10:00 AM",
	})
	assert.Contains(t, text, "Dr. Sopheak")
	assert.Contains(t, text, "Jane Doe")
}

func TestTurnInput_ValueForPrefersTaggedField(t *testing.T) {
	in := TurnInput{Name: "Jane Doe", Doctor: "sopheak"}
	if got := in.valueFor(session.StepProvider); got != "sopheak" {
		t.Errorf("expected tagged doctor field, got %q", got)
	}
	// Ambiguous untagged input yields nothing.
	if got := (TurnInput{Name: "a", Doctor: "b"}).valueFor(session.StepDate); got != "" {
		t.Errorf("expected empty value for ambiguous input, got %q", got)
	}
	if !strings.EqualFold((TurnInput{Date: "2025-03-18"}).valueFor(session.StepDate), "2025-03-18") {
		t.Error("tagged date not returned")
	}
}
