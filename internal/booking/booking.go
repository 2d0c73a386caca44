package booking

import "context"

// StatusConfirmed is the only status a committed booking can carry.
const StatusConfirmed = "confirmed"

// Booking is the immutable record produced when a conversation reaches its
// terminal step and a slot is successfully reserved.
type Booking struct {
	Provider    string `json:"doctor"`
	PatientName string `json:"name"`
	Date        string `json:"date"`
	Slot        string `json:"time"`
	Status      string `json:"status"`
}

// TurnInput carries the (at most one) new fact a caller supplies per turn.
type TurnInput struct {
	Name   string
	Doctor string
	Date   string
	Time   string
}

// TurnResult is what a successful conversation turn produces.
type TurnResult struct {
	SessionID    string
	Message      string
	Done         bool
	Booking      *Booking
	Confirmation string
	Document     string
}

// TextGenerator produces natural-language text from a prompt. It may fail or
// time out; the engine treats that as non-fatal.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DocumentRenderer turns confirmation text into a persisted artifact and
// returns its name.
type DocumentRenderer interface {
	Render(ctx context.Context, b Booking, confirmation string) (string, error)
}
