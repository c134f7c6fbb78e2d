package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
	"github.com/bryanwahyu/stoolscan/internal/infra/db"
)

// Dates are stored as fixed-width UTC text so string comparison matches time order.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Save inserts a history entry
func (r *HistoryRepository) Save(ctx context.Context, e *domain.HistoryEntry) error {
	const q = `INSERT INTO ` + db.Table + ` (id, date, analysis) VALUES (?,?,?)`

	id, date, analysis, err := db.InsertArgs(e)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, id, date.Format(dateLayout), analysis)
	return err
}

// List returns entries within f ordered by date desc
func (r *HistoryRepository) List(ctx context.Context, f domain.HistoryFilter) ([]domain.HistoryEntry, error) {
	q, args := db.ListQuery(f, db.Question)
	for i, a := range args {
		if t, ok := a.(time.Time); ok {
			args[i] = t.UTC().Format(dateLayout)
		}
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.HistoryEntry{}
	for rows.Next() {
		var id, date, analysis string
		if err := rows.Scan(&id, &date, &analysis); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return nil, fmt.Errorf("parse date for %s: %w", id, err)
		}
		e, err := db.DecodeEntry(id, t, []byte(analysis))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
