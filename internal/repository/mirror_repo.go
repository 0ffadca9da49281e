package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"vetclinic/internal/entities"
)

// MirrorRepository persists the per-session cart mirror: the Local-mode store
// for anonymous sessions and the last-known-good cache for synced ones. Only
// the cart engine writes to it.
type MirrorRepository struct {
	DB *sql.DB
}

func NewMirrorRepository(db *sql.DB) *MirrorRepository {
	return &MirrorRepository{DB: db}
}

func (r *MirrorRepository) Load(ctx context.Context, sessionID string) ([]entities.CartLine, error) {
	var raw []byte
	err := r.DB.QueryRowContext(ctx,
		`SELECT lines FROM cart_mirrors WHERE session_id = $1`, sessionID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading cart mirror for session %s: %w", sessionID, err)
	}

	var lines []entities.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("error decoding cart mirror for session %s: %w", sessionID, err)
	}
	return lines, nil
}

func (r *MirrorRepository) Save(ctx context.Context, sessionID, userID string, lines []entities.CartLine) error {
	if lines == nil {
		lines = []entities.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("error encoding cart mirror for session %s: %w", sessionID, err)
	}

	query := `
		INSERT INTO cart_mirrors (session_id, user_id, lines, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET user_id = NULLIF($2, ''), lines = $3, updated_at = NOW()`
	_, err = r.DB.ExecContext(ctx, query, sessionID, userID, raw)
	if err != nil {
		return fmt.Errorf("error saving cart mirror for session %s: %w", sessionID, err)
	}
	return nil
}

func (r *MirrorRepository) Clear(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM cart_mirrors WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("error clearing cart mirror for session %s: %w", sessionID, err)
	}
	return nil
}
