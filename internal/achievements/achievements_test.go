package achievements

import (
	"context"
	"testing"
	"time"

	"github.com/example/espbot/internal/database"
	"github.com/example/espbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(list []Achievement) []string {
	var out []string
	for _, a := range list {
		out = append(out, a.Code)
	}
	return out
}

func TestEvaluateUnlocksOnce(t *testing.T) {
	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	e := NewEvaluator(database.NewAchievementRepository(db))

	u := &models.User{TelegramID: 1, A1Progress: 1, XP: 10}
	got, err := e.Evaluate(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_lesson"}, codes(got))

	got, err = e.Evaluate(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, got)

	u = &models.User{TelegramID: 1, ZeroProgress: 3, A1Progress: 2, Streak: 7, WordsLearned: 20, VoicePracticeCount: 1, XP: 250}
	got, err = e.Evaluate(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, []string{"five_lessons", "streak3", "streak7", "words20", "first_voice", "xp50", "xp200"}, codes(got))
}

func TestUnlockedInOrder(t *testing.T) {
	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	repo := database.NewAchievementRepository(db)
	e := NewEvaluator(repo)

	got, err := e.Unlocked(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = e.Evaluate(ctx, &models.User{TelegramID: 1, A1Progress: 1, XP: 60})
	require.NoError(t, err)
	// код, которого больше нет в правилах
	_, err = repo.Unlock(ctx, 1, "retired_badge", time.Now())
	require.NoError(t, err)

	got, err = e.Unlocked(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_lesson", "xp50"}, codes(got))
	assert.Equal(t, "Первый шаг", got[0].Title)
}

func TestLookup(t *testing.T) {
	a, ok := Lookup("streak7")
	require.True(t, ok)
	assert.NotEmpty(t, a.Title)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}
