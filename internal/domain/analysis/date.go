package analysis

import (
	"fmt"
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

// ParseDateBound parses a start_date/end_date query value. An empty value yields nil.
// A bare date means midnight UTC of that day, for both bounds.
func ParseDateBound(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("%w %q: want YYYY-MM-DD or RFC 3339", ErrInvalidDate, value)
	}
	return &t, nil
}

// NewHistoryFilter builds a filter from raw query values
func NewHistoryFilter(start, end string) (HistoryFilter, error) {
	var f HistoryFilter
	var err error
	if f.Start, err = ParseDateBound(start); err != nil {
		return HistoryFilter{}, err
	}
	if f.End, err = ParseDateBound(end); err != nil {
		return HistoryFilter{}, err
	}
	return f, nil
}
