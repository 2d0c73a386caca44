package availability

import "errors"

var (
	// ErrProviderNotFound is returned when no provider matches the requested name.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrDateNotFound is returned when a provider has no open slots on the requested date.
	ErrDateNotFound = errors.New("no availability on that date")

	// ErrSlotTaken is returned when a reservation loses the race for a slot.
	ErrSlotTaken = errors.New("slot is no longer available")
)
