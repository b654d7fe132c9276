package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/espbot/internal/database"
	"github.com/example/espbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	sent   map[int64]int
	failOn int64
}

func (n *fakeNotifier) SendReminders(userID int64, count int) error {
	if userID == n.failOn {
		return errors.New("bot was blocked by the user")
	}
	if n.sent == nil {
		n.sent = map[int64]int{}
	}
	n.sent[userID] = count
	return nil
}

func setup(t *testing.T) (*database.ReviewRepository, time.Time) {
	t.Helper()
	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := database.NewReviewRepository(db)
	add := func(userID int64, due time.Time) {
		require.NoError(t, repo.Insert(context.Background(), &models.ReviewItem{
			TelegramID: userID, ItemID: "x", ItemType: models.ItemTypeWord,
			Content: "hola", Answer: "привет", NextReviewAt: due, CreatedAt: now, UpdatedAt: now,
		}))
	}
	add(1, now.Add(-time.Hour))
	add(1, now.Add(-2*time.Hour))
	add(2, now.Add(-time.Minute))
	add(3, now.Add(time.Hour))
	return repo, now
}

func TestRunCheck(t *testing.T) {
	repo, now := setup(t)
	notifier := &fakeNotifier{failOn: 2}

	s := New(repo, notifier, "", zap.NewNop())
	s.now = func() time.Time { return now }

	sent, err := s.RunCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, map[int64]int{1: 2}, notifier.sent)
}

func TestRunManualCheck(t *testing.T) {
	repo, now := setup(t)
	notifier := &fakeNotifier{}

	s := New(repo, notifier, "08:30", zap.NewNop())
	s.now = func() time.Time { return now }

	count, err := s.RunManualCheck(context.Background(), 3)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, notifier.sent)

	count, err = s.RunManualCheck(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, map[int64]int{1: 2}, notifier.sent)

	notifier.failOn = 2
	_, err = s.RunManualCheck(context.Background(), 2)
	assert.Error(t, err)
}

func TestStartRejectsBadTime(t *testing.T) {
	repo, _ := setup(t)
	s := New(repo, &fakeNotifier{}, "25:99", zap.NewNop())
	assert.Error(t, s.Start())
}
