package spaced_repetition

import (
	"context"
	"testing"
	"time"

	"github.com/example/espbot/internal/database"
	"github.com/example/espbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	scheduler *Scheduler
	reviews   *database.ReviewRepository
	users     *database.UserRepository
	now       time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		reviews: database.NewReviewRepository(db),
		users:   database.NewUserRepository(db),
		now:     time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	_, err = f.users.GetOrCreate(context.Background(), 1, "", "")
	require.NoError(t, err)

	f.scheduler = NewScheduler(f.reviews, f.users, zap.NewNop())
	f.scheduler.Now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func TestRecordMistakeIsDueImmediately(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	item, err := f.scheduler.RecordMistake(ctx, 1, "a1_01_choice_0", models.ItemTypeWord, "perro", "собака", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Interval)
	assert.True(t, item.NextReviewAt.Equal(f.now))

	due, err := f.scheduler.DueItems(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "perro", due[0].Content)
}

func TestRecordMistakeWithInitialInterval(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.scheduler.RecordMistake(ctx, 1, "x", models.ItemTypeWord, "gato", "кот", 2)
	require.NoError(t, err)

	due, err := f.scheduler.DueItems(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, due)

	f.advance(48 * time.Hour)
	count, err := f.scheduler.DueCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordMistakeKeepsDuplicatesByDefault(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for i := 0; i < 2; i++ {
		_, err := f.scheduler.RecordMistake(ctx, 1, "a1_01_fill_2", models.ItemTypePhrase, "yo soy", "я есть", 0)
		require.NoError(t, err)
	}

	count, err := f.scheduler.DueCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecordMistakeDedupReschedulesOpenItem(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.scheduler.Dedup = true

	first, err := f.scheduler.RecordMistake(ctx, 1, "a1_01_fill_2", models.ItemTypePhrase, "yo soy", "я есть", 0)
	require.NoError(t, err)
	_, err = f.scheduler.RecordAnswer(ctx, first, true)
	require.NoError(t, err)

	f.advance(time.Hour)
	second, err := f.scheduler.RecordMistake(ctx, 1, "a1_01_fill_2", models.ItemTypePhrase, "yo soy", "я есть", 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 0, second.Interval)

	due, err := f.scheduler.DueItems(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.True(t, due[0].NextReviewAt.Equal(f.now))
}

func TestRecordAnswerFollowsLadderUntilGraduation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	item, err := f.scheduler.RecordMistake(ctx, 1, "w", models.ItemTypeWord, "casa", "дом", 0)
	require.NoError(t, err)

	// A wrong answer first puts the item on the first step
	retired, err := f.scheduler.RecordAnswer(ctx, item, false)
	require.NoError(t, err)
	assert.False(t, retired)

	for _, want := range []int{3, 7, 14} {
		f.advance(15 * 24 * time.Hour)
		retired, err := f.scheduler.RecordAnswer(ctx, item, true)
		require.NoError(t, err)
		require.False(t, retired)

		stored, err := f.scheduler.Item(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, want, stored.Interval)
		assert.True(t, stored.NextReviewAt.Equal(stored.UpdatedAt.AddDate(0, 0, want)))
	}

	retired, err = f.scheduler.RecordAnswer(ctx, item, true)
	require.NoError(t, err)
	assert.True(t, retired)

	_, err = f.scheduler.Item(ctx, item.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	user, err := f.users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, user.WordsLearned)
}

func TestRecordAnswerWrongResetsToFirstStep(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	item, err := f.scheduler.RecordMistake(ctx, 1, "w", models.ItemTypeWord, "casa", "дом", 0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = f.scheduler.RecordAnswer(ctx, item, true)
		require.NoError(t, err)
	}
	require.Equal(t, 14, item.Interval)

	retired, err := f.scheduler.RecordAnswer(ctx, item, false)
	require.NoError(t, err)
	assert.False(t, retired)
	assert.Equal(t, 1, item.Interval)
	assert.True(t, item.NextReviewAt.Equal(f.now.AddDate(0, 0, 1)))
}

func TestDueItemsAreOldestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for i := 0; i < 8; i++ {
		_, err := f.scheduler.RecordMistake(ctx, 1, "item", models.ItemTypeWord, string(rune('a'+i)), "x", 0)
		require.NoError(t, err)
		f.advance(time.Minute)
	}

	due, err := f.scheduler.DueItems(ctx, 1, 7)
	require.NoError(t, err)
	require.Len(t, due, 7)
	for i := 1; i < len(due); i++ {
		assert.False(t, due[i].NextReviewAt.Before(due[i-1].NextReviewAt))
	}
	assert.Equal(t, "a", due[0].Content)
}

func TestItemTypeFor(t *testing.T) {
	assert.Equal(t, models.ItemTypeWord, ItemTypeFor("perro"))
	assert.Equal(t, models.ItemTypePhrase, ItemTypeFor("buenos días"))
}
