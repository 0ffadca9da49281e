package repository

import (
	"database/sql"
	"strconv"

	"vetclinic/internal/db"
)

type AdminRepository struct {
	DB *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{DB: db}
}

// ListMirrors returns cart mirrors for the staff dashboard, optionally
// filtered by owner and last-touched date.
func (r *AdminRepository) ListMirrors(userID, updatedSince string, guestsOnly bool) ([]db.CartMirror, error) {
	query := `
	SELECT m.session_id, m.user_id, m.lines, m.updated_at
	FROM cart_mirrors m
	WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if userID != "" {
		query += " AND m.user_id = $" + strconv.Itoa(idx)
		args = append(args, userID)
		idx++
	}
	if updatedSince != "" {
		query += " AND m.updated_at >= $" + strconv.Itoa(idx)
		args = append(args, updatedSince)
		idx++
	}
	if guestsOnly {
		query += " AND m.user_id IS NULL"
	}
	query += " ORDER BY m.updated_at DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mirrors []db.CartMirror
	for rows.Next() {
		var m db.CartMirror
		err := rows.Scan(&m.SessionID, &m.UserID, &m.Lines, &m.UpdatedAt)
		if err == nil {
			mirrors = append(mirrors, m)
		}
	}
	return mirrors, nil
}
