package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/espbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, telegram_id, username, first_name, level, last_level_test_at,
	level_test_count, zero_progress, a1_progress, a2_progress, b1_progress,
	streak, last_activity_date, xp, words_learned, voice_practice_count, created_at`

// progressColumns maps a track code to its counter column
var progressColumns = map[string]string{
	"ZERO": "zero_progress",
	"A1":   "a1_progress",
	"A2":   "a2_progress",
	"B1":   "b1_progress",
}

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate returns the user, creating the row on first interaction
func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error) {
	query := r.db.Rebind(`
		INSERT INTO users (telegram_id, username, first_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO NOTHING
	`)
	if _, err := r.db.ExecContext(ctx, query, telegramID, username, firstName, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return r.Get(ctx, telegramID)
}

// Get returns a user by Telegram ID
func (r *UserRepository) Get(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE telegram_id = ?`)
	if err := r.db.GetContext(ctx, &user, query, telegramID); err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// SetTrackProgress records completed lessons of a track; the counter never goes down
func (r *UserRepository) SetTrackProgress(ctx context.Context, telegramID int64, track string, lessons int) error {
	column, ok := progressColumns[track]
	if !ok {
		return fmt.Errorf("unknown track %q", track)
	}
	query := r.db.Rebind(fmt.Sprintf(
		`UPDATE users SET %[1]s = CASE WHEN %[1]s < ? THEN ? ELSE %[1]s END WHERE telegram_id = ?`,
		column,
	))
	res, err := r.db.ExecContext(ctx, query, lessons, lessons, telegramID)
	return expectRow(res, err, "user progress")
}

// SetLevel changes the curriculum level
func (r *UserRepository) SetLevel(ctx context.Context, telegramID int64, level string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET level = ? WHERE telegram_id = ?`), level, telegramID)
	return expectRow(res, err, "user level")
}

// RecordLevelTest stores a placement result
func (r *UserRepository) RecordLevelTest(ctx context.Context, telegramID int64, level string, at time.Time) error {
	query := r.db.Rebind(`
		UPDATE users SET
			level = ?,
			last_level_test_at = ?,
			level_test_count = level_test_count + 1
		WHERE telegram_id = ?
	`)
	res, err := r.db.ExecContext(ctx, query, level, at.UTC(), telegramID)
	return expectRow(res, err, "user level test")
}

// AddXP adds experience points
func (r *UserRepository) AddXP(ctx context.Context, telegramID int64, xp int) error {
	return r.increment(ctx, telegramID, "xp", xp)
}

// IncrementWordsLearned adds to the learned words counter
func (r *UserRepository) IncrementWordsLearned(ctx context.Context, telegramID int64, n int) error {
	return r.increment(ctx, telegramID, "words_learned", n)
}

// IncrementVoicePractice counts one more voice exercise
func (r *UserRepository) IncrementVoicePractice(ctx context.Context, telegramID int64) error {
	return r.increment(ctx, telegramID, "voice_practice_count", 1)
}

func (r *UserRepository) increment(ctx context.Context, telegramID int64, column string, n int) error {
	query := r.db.Rebind(fmt.Sprintf(`UPDATE users SET %[1]s = %[1]s + ? WHERE telegram_id = ?`, column))
	res, err := r.db.ExecContext(ctx, query, n, telegramID)
	return expectRow(res, err, "user "+column)
}

// UpdateStreak registers activity at now and returns the resulting streak
func (r *UserRepository) UpdateStreak(ctx context.Context, telegramID int64, now time.Time) (int, error) {
	user, err := r.Get(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	streak := user.NextStreak(now)

	query := r.db.Rebind(`UPDATE users SET streak = ?, last_activity_date = ? WHERE telegram_id = ?`)
	res, err := r.db.ExecContext(ctx, query, streak, now.UTC(), telegramID)
	if err := expectRow(res, err, "user streak"); err != nil {
		return 0, err
	}
	return streak, nil
}
