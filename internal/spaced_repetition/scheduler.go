package spaced_repetition

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/espbot/internal/database"
	"github.com/example/espbot/pkg/models"
	"go.uber.org/zap"
)

// Store is the persistence the scheduler works on
type Store interface {
	Insert(ctx context.Context, item *models.ReviewItem) error
	ListDue(ctx context.Context, telegramID int64, now time.Time, limit int) ([]models.ReviewItem, error)
	CountDue(ctx context.Context, telegramID int64, now time.Time) (int, error)
	GetByID(ctx context.Context, id int64) (*models.ReviewItem, error)
	FindOpen(ctx context.Context, telegramID int64, itemID string) (*models.ReviewItem, error)
	UpdateInterval(ctx context.Context, id int64, interval int, updatedAt, nextReviewAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

// LearnedCounter is credited when an item graduates
type LearnedCounter interface {
	IncrementWordsLearned(ctx context.Context, telegramID int64, n int) error
}

// Scheduler decides when missed items come back and when they are retired
type Scheduler struct {
	// Интервалы повторения в днях
	Intervals Ladder
	// Dedup reschedules an open item with the same key instead of adding a row
	Dedup bool
	Now   func() time.Time

	store   Store
	learned LearnedCounter
	logger  *zap.Logger
}

// NewScheduler creates a scheduler with the default ladder
func NewScheduler(store Store, learned LearnedCounter, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		Intervals: Ladder(DefaultIntervals),
		Now:       time.Now,
		store:     store,
		learned:   learned,
		logger:    logger,
	}
}

// ItemTypeFor classifies free text as a word or a phrase
func ItemTypeFor(content string) models.ItemType {
	if strings.Contains(strings.TrimSpace(content), " ") {
		return models.ItemTypePhrase
	}
	return models.ItemTypeWord
}

// RecordMistake schedules a missed item due now + initialIntervalDays
func (s *Scheduler) RecordMistake(ctx context.Context, userID int64, itemID string, itemType models.ItemType, content, answer string, initialIntervalDays int) (*models.ReviewItem, error) {
	now := s.Now().UTC()
	due := now.AddDate(0, 0, initialIntervalDays)

	if s.Dedup {
		open, err := s.store.FindOpen(ctx, userID, itemID)
		switch {
		case err == nil:
			if err := s.store.UpdateInterval(ctx, open.ID, initialIntervalDays, now, due); err != nil {
				return nil, fmt.Errorf("failed to reschedule review item: %w", err)
			}
			open.Interval, open.UpdatedAt, open.NextReviewAt = initialIntervalDays, now, due
			return open, nil
		case !errors.Is(err, database.ErrNotFound):
			return nil, fmt.Errorf("failed to look up review item: %w", err)
		}
	}

	item := &models.ReviewItem{
		TelegramID:   userID,
		ItemID:       itemID,
		ItemType:     itemType,
		Content:      content,
		Answer:       answer,
		Interval:     initialIntervalDays,
		NextReviewAt: due,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DueItems returns the user's due items oldest first; limit <= 0 returns all
func (s *Scheduler) DueItems(ctx context.Context, userID int64, limit int) ([]models.ReviewItem, error) {
	return s.store.ListDue(ctx, userID, s.Now(), limit)
}

// DueCount returns how many items are waiting
func (s *Scheduler) DueCount(ctx context.Context, userID int64) (int, error) {
	return s.store.CountDue(ctx, userID, s.Now())
}

// Item loads a review item by ID
func (s *Scheduler) Item(ctx context.Context, id int64) (*models.ReviewItem, error) {
	return s.store.GetByID(ctx, id)
}

// RecordAnswer moves the item along the ladder, deleting it after a correct
// answer on the last step. The learned-words credit for a graduated item is
// best effort.
func (s *Scheduler) RecordAnswer(ctx context.Context, item *models.ReviewItem, correct bool) (bool, error) {
	next, graduated := s.Intervals.Next(item.Interval, correct)

	if graduated {
		if err := s.store.Delete(ctx, item.ID); err != nil {
			return false, fmt.Errorf("failed to retire review item: %w", err)
		}
		if err := s.learned.IncrementWordsLearned(ctx, item.TelegramID, 1); err != nil {
			s.logger.Warn("failed to credit learned word",
				zap.Int64("telegram_id", item.TelegramID),
				zap.Int64("item_id", item.ID),
				zap.Error(err))
		}
		return true, nil
	}

	now := s.Now().UTC()
	due := now.AddDate(0, 0, next)
	if err := s.store.UpdateInterval(ctx, item.ID, next, now, due); err != nil {
		return false, fmt.Errorf("failed to reschedule review item: %w", err)
	}
	item.Interval, item.UpdatedAt, item.NextReviewAt = next, now, due
	return false, nil
}
