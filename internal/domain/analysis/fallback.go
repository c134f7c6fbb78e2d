package analysis

import "time"

// FallbackRecord is returned in place of a failed model call.
func FallbackRecord() Record {
	return Record{
		Color:           "Brown (Normal)",
		Consistency:     "Soft and smooth",
		Shape:           "Type 4 (Sausage or Snake)",
		HealthScore:     9,
		Concerns:        []string{"None detected"},
		Recommendations: []string{"Continue healthy diet", "Maintain hydration"},
	}
}

// MockHistory is returned in place of a failed history query. Dates are relative to now.
func MockHistory(now time.Time) []HistoryEntry {
	now = now.UTC()
	return []HistoryEntry{
		{
			ID:   "mock-1",
			Date: now.Add(-24 * time.Hour),
			Analysis: Record{
				Consistency:     "Type 4",
				Shape:           "Smooth, soft sausage",
				Color:           "Brown",
				HealthScore:     9,
				Concerns:        []string{},
				Recommendations: []string{"Maintain current diet", "Stay hydrated"},
			},
		},
		{
			ID:   "mock-2",
			Date: now.Add(-3 * 24 * time.Hour),
			Analysis: Record{
				Consistency:     "Type 2",
				Shape:           "Lumpy, sausage-like",
				Color:           "Dark Brown",
				HealthScore:     6,
				Concerns:        []string{"Mild constipation", "Low fiber indicators"},
				Recommendations: []string{"Increase fiber intake", "Drink more water", "Exercise daily"},
			},
		},
	}
}
