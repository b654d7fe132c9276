package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/espbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

const reviewColumns = `id, telegram_id, item_id, item_type, content, answer,
	interval_days, next_review_at, created_at, updated_at`

// ReviewRepository handles database operations for review items
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new repository instance
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Insert stores a new review item and fills its ID
func (r *ReviewRepository) Insert(ctx context.Context, item *models.ReviewItem) error {
	query := r.db.Rebind(`
		INSERT INTO review_items (
			telegram_id, item_id, item_type, content, answer,
			interval_days, next_review_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		item.TelegramID,
		item.ItemID,
		item.ItemType,
		item.Content,
		item.Answer,
		item.Interval,
		item.NextReviewAt.UTC(),
		item.CreatedAt.UTC(),
		item.UpdatedAt.UTC(),
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to insert review item: %w", err)
	}
	return nil
}

// ListDue returns items due at now, oldest first; limit <= 0 means no cap
func (r *ReviewRepository) ListDue(ctx context.Context, telegramID int64, now time.Time, limit int) ([]models.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_items
		WHERE telegram_id = ? AND next_review_at <= ?
		ORDER BY next_review_at ASC, id ASC`
	args := []interface{}{telegramID, now.UTC()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var items []models.ReviewItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list due review items: %w", err)
	}
	return items, nil
}

// CountDue returns how many items of the user are due at now
func (r *ReviewRepository) CountDue(ctx context.Context, telegramID int64, now time.Time) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM review_items WHERE telegram_id = ? AND next_review_at <= ?`)
	if err := r.db.GetContext(ctx, &count, query, telegramID, now.UTC()); err != nil {
		return 0, fmt.Errorf("failed to count due review items: %w", err)
	}
	return count, nil
}

// UsersWithDue groups due items by user, for reminders
func (r *ReviewRepository) UsersWithDue(ctx context.Context, now time.Time) ([]models.DueCount, error) {
	query := r.db.Rebind(`
		SELECT telegram_id, COUNT(*) AS cnt FROM review_items
		WHERE next_review_at <= ?
		GROUP BY telegram_id
		ORDER BY telegram_id
	`)
	var counts []models.DueCount
	if err := r.db.SelectContext(ctx, &counts, query, now.UTC()); err != nil {
		return nil, fmt.Errorf("failed to count users with due reviews: %w", err)
	}
	return counts, nil
}

// GetByID returns a single review item
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*models.ReviewItem, error) {
	var item models.ReviewItem
	query := r.db.Rebind(`SELECT ` + reviewColumns + ` FROM review_items WHERE id = ?`)
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, notFound(err, "review item")
	}
	return &item, nil
}

// FindOpen returns the newest live item of the user with the given item key
func (r *ReviewRepository) FindOpen(ctx context.Context, telegramID int64, itemID string) (*models.ReviewItem, error) {
	var item models.ReviewItem
	query := r.db.Rebind(`SELECT ` + reviewColumns + ` FROM review_items
		WHERE telegram_id = ? AND item_id = ?
		ORDER BY id DESC LIMIT 1`)
	if err := r.db.GetContext(ctx, &item, query, telegramID, itemID); err != nil {
		return nil, notFound(err, "review item")
	}
	return &item, nil
}

// UpdateInterval moves an item to a new ladder step
func (r *ReviewRepository) UpdateInterval(ctx context.Context, id int64, interval int, updatedAt, nextReviewAt time.Time) error {
	query := r.db.Rebind(`
		UPDATE review_items SET
			interval_days = ?,
			next_review_at = ?,
			updated_at = ?
		WHERE id = ?
	`)
	res, err := r.db.ExecContext(ctx, query, interval, nextReviewAt.UTC(), updatedAt.UTC(), id)
	return expectRow(res, err, "review item")
}

// Delete removes a graduated item
func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM review_items WHERE id = ?`), id)
	return expectRow(res, err, "review item")
}
