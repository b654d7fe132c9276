package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/espbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// AchievementRepository handles database operations for achievements
type AchievementRepository struct {
	db *sqlx.DB
}

// NewAchievementRepository creates a new repository instance
func NewAchievementRepository(db *sqlx.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// Unlock stores an achievement and reports whether it is new for the user
func (r *AchievementRepository) Unlock(ctx context.Context, telegramID int64, code string, at time.Time) (bool, error) {
	query := r.db.Rebind(`
		INSERT INTO achievements (telegram_id, code, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (telegram_id, code) DO NOTHING
	`)
	res, err := r.db.ExecContext(ctx, query, telegramID, code, at.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement %s: %w", code, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// List returns the user's achievements in unlock order
func (r *AchievementRepository) List(ctx context.Context, telegramID int64) ([]models.Achievement, error) {
	var list []models.Achievement
	query := r.db.Rebind(`SELECT id, telegram_id, code, created_at FROM achievements WHERE telegram_id = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &list, query, telegramID); err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return list, nil
}
