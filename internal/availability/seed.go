package availability

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultProviders returns the schedule the service ships with so it can run
// before any real schedule has been loaded.
func DefaultProviders() []Provider {
	return []Provider{
		{
			ID:                 "Dr. Sopheak",
			Specialization:     "Cardiology",
			Languages:          []string{"English", "Khmer"},
			EmergencyAvailable: true,
			WorkingHours: map[string][]string{
				"2025-03-18": {"10:00 AM", "11:00 AM", "2:00 PM"},
				"2025-03-19": {"9:00 AM", "1:00 PM", "3:00 PM"},
			},
		},
		{
			ID:                 "Dr. Leakena",
			Specialization:     "Pediatrics",
			Languages:          []string{"English", "Khmer"},
			EmergencyAvailable: false,
			WorkingHours: map[string][]string{
				"2025-03-18": {"9:00 AM", "12:00 PM"},
				"2025-03-19": {"10:00 AM", "2:00 PM"},
			},
		},
	}
}

// LoadFile reads a provider schedule from a JSON file.
func LoadFile(path string) ([]Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("availability: read schedule file: %w", err)
	}
	var providers []Provider
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("availability: parse schedule file: %w", err)
	}
	for _, p := range providers {
		if p.ID == "" {
			return nil, fmt.Errorf("availability: schedule entry missing provider id")
		}
	}
	return providers, nil
}
