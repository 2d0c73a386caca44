package session

import "time"

// Step identifies which fact the booking conversation is waiting for.
type Step int

const (
	StepName Step = iota
	StepProvider
	StepDate
	StepSlot
	StepDone
)

// String returns a stable label for logs and metrics.
func (s Step) String() string {
	switch s {
	case StepName:
		return "awaiting_name"
	case StepProvider:
		return "awaiting_provider"
	case StepDate:
		return "awaiting_date"
	case StepSlot:
		return "awaiting_slot"
	case StepDone:
		return "completed"
	default:
		return "unknown"
	}
}

// Session tracks one caller's progress through the booking conversation.
// Fields accumulate monotonically in step order and are set exactly once.
type Session struct {
	ID          string    `json:"id"`
	Step        Step      `json:"step"`
	PatientName string    `json:"patient_name,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Date        string    `json:"date,omitempty"`
	Slot        string    `json:"slot,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
