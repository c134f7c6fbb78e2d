// Package db holds the SQL-backed history repositories.
package db

import (
	"context"
	"fmt"

	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
)

// Offline stands in for a database that could not be opened at startup. Every call
// fails with Err, which sends the service down its fallback paths.
type Offline struct {
	Err error
}

func (o Offline) Save(context.Context, *domain.HistoryEntry) error {
	return o.err()
}

func (o Offline) List(context.Context, domain.HistoryFilter) ([]domain.HistoryEntry, error) {
	return nil, o.err()
}

func (o Offline) err() error {
	if o.Err == nil {
		return fmt.Errorf("database offline")
	}
	return fmt.Errorf("database offline: %w", o.Err)
}
