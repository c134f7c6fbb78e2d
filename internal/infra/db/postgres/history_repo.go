package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
	"github.com/bryanwahyu/stoolscan/internal/infra/db"
)

// HistoryRepository stores entries in a postgres table with a jsonb analysis column:
//
//	CREATE TABLE stool_analysis_history (
//	  id       uuid PRIMARY KEY,
//	  date     timestamptz NOT NULL,
//	  analysis jsonb NOT NULL
//	);
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Save inserts a history entry
func (r *HistoryRepository) Save(ctx context.Context, e *domain.HistoryEntry) error {
	const q = `INSERT INTO ` + db.Table + ` (id, date, analysis) VALUES ($1, $2, $3::jsonb)`

	id, date, analysis, err := db.InsertArgs(e)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, id, date, analysis)
	return err
}

// List returns entries within f ordered by date desc
func (r *HistoryRepository) List(ctx context.Context, f domain.HistoryFilter) ([]domain.HistoryEntry, error) {
	q, args := db.ListQuery(f, db.Dollar)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			id       string
			date     time.Time
			analysis []byte
		)
		if err := rows.Scan(&id, &date, &analysis); err != nil {
			return nil, err
		}
		e, err := db.DecodeEntry(id, date, analysis)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
