package availability

// Provider is a bookable professional with a schedule of open slots.
// WorkingHours maps an ISO date ("2025-03-18") to the ordered slot labels
// still open on that date. Slot labels are provider-defined strings
// ("10:00 AM") and are never parsed into numeric times.
type Provider struct {
	ID                 string              `json:"id"`
	Specialization     string              `json:"specialization"`
	Languages          []string            `json:"languages"`
	EmergencyAvailable bool                `json:"emergency_available"`
	WorkingHours       map[string][]string `json:"working_hours"`
}

func (p Provider) clone() Provider {
	out := p
	out.Languages = append([]string(nil), p.Languages...)
	out.WorkingHours = make(map[string][]string, len(p.WorkingHours))
	for date, slots := range p.WorkingHours {
		out.WorkingHours[date] = append([]string(nil), slots...)
	}
	return out
}
