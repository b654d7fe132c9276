package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SessionRepository persists the serialized conversation state of each user
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load returns the stored session blob or ErrNotFound
func (r *SessionRepository) Load(ctx context.Context, telegramID int64) ([]byte, error) {
	var data string
	query := r.db.Rebind(`SELECT data FROM sessions WHERE telegram_id = ?`)
	if err := r.db.GetContext(ctx, &data, query, telegramID); err != nil {
		return nil, notFound(err, "session")
	}
	return []byte(data), nil
}

// Save upserts the session blob
func (r *SessionRepository) Save(ctx context.Context, telegramID int64, data []byte, at time.Time) error {
	query := r.db.Rebind(`
		INSERT INTO sessions (telegram_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`)
	if _, err := r.db.ExecContext(ctx, query, telegramID, string(data), at.UTC()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete drops the session; missing rows are fine
func (r *SessionRepository) Delete(ctx context.Context, telegramID int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE telegram_id = ?`), telegramID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
