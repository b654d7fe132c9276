package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/espbot/pkg/models"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// DefaultReminderTime is the daily reminder time in UTC
const DefaultReminderTime = "09:00"

// DueCounter reports who has reviews waiting
type DueCounter interface {
	UsersWithDue(ctx context.Context, now time.Time) ([]models.DueCount, error)
	CountDue(ctx context.Context, telegramID int64, now time.Time) (int, error)
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// Scheduler sends the daily review reminders
type Scheduler struct {
	scheduler *gocron.Scheduler
	reviews   DueCounter
	notifier  Notifier
	at        string
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a new scheduler instance; at is "HH:MM" in UTC
func New(reviews DueCounter, notifier Notifier, at string, logger *zap.Logger) *Scheduler {
	if at == "" {
		at = DefaultReminderTime
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		reviews:   reviews,
		notifier:  notifier,
		at:        at,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the daily check and runs it in the background
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.RunCheck(ctx); err != nil {
			s.logger.Error("reminder check failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders at %q: %w", s.at, err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("reminders scheduled", zap.String("at", s.at))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunCheck reminds every user with due items and returns how many were notified.
// A failed send is logged and does not stop the others.
func (s *Scheduler) RunCheck(ctx context.Context) (int, error) {
	users, err := s.reviews.UsersWithDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list users with due reviews: %w", err)
	}

	sent := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err := s.notifier.SendReminders(u.TelegramID, u.Count); err != nil {
			s.logger.Warn("failed to send reminder",
				zap.Int64("telegram_id", u.TelegramID), zap.Error(err))
			continue
		}
		sent++
	}

	s.logger.Info("reminders sent", zap.Int("users", len(users)), zap.Int("sent", sent))
	return sent, nil
}

// RunManualCheck reminds one user if anything is due and returns the due count
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) (int, error) {
	count, err := s.reviews.CountDue(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.notifier.SendReminders(userID, count); err != nil {
		return 0, err
	}
	return count, nil
}
