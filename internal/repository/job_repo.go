package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// GetStaleGuestMirrorIDs busca session ids de carritos de invitados sin tocar
// desde el cutoff. Mirrors tied to a user are kept: they are the synced-mode
// fallback cache.
func (r *JobRepository) GetStaleGuestMirrorIDs(before time.Time) ([]string, error) {
	query := `SELECT session_id FROM cart_mirrors WHERE user_id IS NULL AND updated_at < $1`
	rows, err := r.DB.Query(query, before)
	if err != nil {
		return nil, fmt.Errorf("error querying stale guest mirrors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning mirror session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

func (r *JobRepository) DeleteMirrors(sessionIDs []string) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	result, err := r.DB.Exec(`DELETE FROM cart_mirrors WHERE session_id = ANY($1)`, pq.Array(sessionIDs))
	if err != nil {
		return 0, fmt.Errorf("error deleting cart mirrors: %w", err)
	}
	return result.RowsAffected()
}
