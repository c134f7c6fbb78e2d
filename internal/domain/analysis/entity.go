package analysis

import "time"

// EntryID identifier type
type EntryID string

// Record is the structured description of an uploaded image
type Record struct {
	Color           string   `json:"color"`
	Consistency     string   `json:"consistency"`
	Shape           string   `json:"shape"` // Bristol Stool Scale type, free text
	HealthScore     float64  `json:"health_score"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}

// HistoryEntry is a persisted Record. Entries are never mutated after Save.
type HistoryEntry struct {
	ID       EntryID   `json:"id"`
	Date     time.Time `json:"date"`
	Analysis Record    `json:"analysis"`
}

// Image is a decoded upload ready to be sent to the model
type Image struct {
	Data     []byte
	MIMEType string
}

// HistoryFilter holds inclusive bounds on HistoryEntry.Date. Nil means unbounded.
type HistoryFilter struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t lies within the filter bounds
func (f HistoryFilter) Contains(t time.Time) bool {
	if f.Start != nil && t.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.After(*f.End) {
		return false
	}
	return true
}
