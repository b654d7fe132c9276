package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAchievementRepositoryUnlockOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewAchievementRepository(setupTestDB(t))
	now := time.Now()

	fresh, err := repo.Unlock(ctx, 1, "first_lesson", now)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = repo.Unlock(ctx, 1, "first_lesson", now)
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = repo.Unlock(ctx, 2, "first_lesson", now)
	require.NoError(t, err)
	assert.True(t, fresh)

	list, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first_lesson", list[0].Code)
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(setupTestDB(t))
	now := time.Now()

	_, err := repo.Load(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Save(ctx, 1, []byte(`{"mode":"cards"}`), now))
	require.NoError(t, repo.Save(ctx, 1, []byte(`{"mode":"review"}`), now))

	data, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"review"}`, string(data))

	require.NoError(t, repo.Delete(ctx, 1))
	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Load(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
