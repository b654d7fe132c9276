package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/espbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// StatisticsRepository aggregates usage numbers
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// Overview returns the totals at now; "today" starts at UTC midnight
func (r *StatisticsRepository) Overview(ctx context.Context, now time.Time) (*models.Statistics, error) {
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	query := r.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM users WHERE last_activity_date >= ?) AS active_today,
			(SELECT COALESCE(SUM(zero_progress + a1_progress + a2_progress + b1_progress), 0) FROM users) AS lessons_completed,
			(SELECT COALESCE(SUM(level_test_count), 0) FROM users) AS level_tests,
			(SELECT COUNT(*) FROM review_items) AS review_items,
			(SELECT COUNT(*) FROM review_items WHERE next_review_at <= ?) AS due_items,
			(SELECT COUNT(*) FROM achievements) AS achievements
	`)
	var stats models.Statistics
	if err := r.db.GetContext(ctx, &stats, query, dayStart, now); err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return &stats, nil
}
