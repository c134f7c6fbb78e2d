package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
	"github.com/bryanwahyu/stoolscan/internal/infra/db"
)

// HistoryRepository expects:
//
//	CREATE TABLE stool_analysis_history (
//	  id       CHAR(36) PRIMARY KEY,
//	  date     DATETIME(6) NOT NULL,
//	  analysis JSON NOT NULL,
//	  KEY idx_date (date)
//	);
//
// The DSN must carry parseTime=true.
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
	_, err = r.db.ExecContext(ctx, q, id, date, analysis)
	return err
}

// List returns entries within f ordered by date desc
func (r *HistoryRepository) List(ctx context.Context, f domain.HistoryFilter) ([]domain.HistoryEntry, error) {
	q, args := db.ListQuery(f, db.Question)
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
