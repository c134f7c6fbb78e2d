package db

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
)

// Table is the history table shared by every driver.
const Table = "stool_analysis_history"

// EncodeAnalysis renders the record for a JSON column
func EncodeAnalysis(r domain.Record) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode analysis: %w", err)
	}
	return string(b), nil
}

// InsertArgs fills safe defaults on e and returns the id, date and analysis columns.
// An entry without an ID gets a fresh uuid, a zero date becomes now.
func InsertArgs(e *domain.HistoryEntry) (string, time.Time, string, error) {
	if strings.TrimSpace(string(e.ID)) == "" {
		e.ID = domain.EntryID(uuid.New().String())
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	e.Date = e.Date.UTC()
	analysis, err := EncodeAnalysis(e.Analysis)
	if err != nil {
		return "", time.Time{}, "", err
	}
	return string(e.ID), e.Date, analysis, nil
}

// DecodeEntry builds a HistoryEntry from a scanned row
func DecodeEntry(id string, date time.Time, analysis []byte) (domain.HistoryEntry, error) {
	var rec domain.Record
	if len(analysis) > 0 {
		if err := json.Unmarshal(analysis, &rec); err != nil {
			return domain.HistoryEntry{}, fmt.Errorf("decode analysis for %s: %w", id, err)
		}
	}
	if rec.Concerns == nil {
		rec.Concerns = []string{}
	}
	if rec.Recommendations == nil {
		rec.Recommendations = []string{}
	}
	return domain.HistoryEntry{ID: domain.EntryID(id), Date: date.UTC(), Analysis: rec}, nil
}

// Placeholder renders the n-th (1-based) bind parameter
type Placeholder func(n int) string

// Dollar is the postgres placeholder style
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Question is the mysql/sqlite placeholder style
func Question(int) string { return "?" }

// ListQuery builds the history select with optional inclusive date bounds.
func ListQuery(f domain.HistoryFilter, ph Placeholder) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Start != nil {
		args = append(args, f.Start.UTC())
		where = append(where, "date >= "+ph(len(args)))
	}
	if f.End != nil {
		args = append(args, f.End.UTC())
		where = append(where, "date <= "+ph(len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT id, date, analysis FROM " + Table)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY date DESC, id DESC")
	return b.String(), args
}
