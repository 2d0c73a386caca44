package booking

// TurnErrorKind classifies recoverable turn failures so callers can branch
// without inspecting message strings.
type TurnErrorKind int

const (
	// KindValidation covers bad or missing input for the current step.
	KindValidation TurnErrorKind = iota
	// KindSlotUnavailable means the reservation lost a race at the final step.
	KindSlotUnavailable
)

// TurnError keeps the session in its current (possibly rewound) state and
// carries the corrective prompt to show the caller.
type TurnError struct {
	Kind      TurnErrorKind
	SessionID string
	Prompt    string
}

func (e *TurnError) Error() string {
	return e.Prompt
}
