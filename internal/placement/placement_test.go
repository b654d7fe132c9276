package placement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answersFor answers the first n questions of each level correctly and the rest wrong
func answersFor(b *Bank, correct map[string]int) map[int]int {
	answers := make(map[int]int)
	given := make(map[string]int)
	for i, q := range b.Questions {
		if given[q.Level] < correct[q.Level] {
			answers[i] = q.Correct
			given[q.Level]++
		} else {
			answers[i] = (q.Correct + 1) % len(q.Options)
		}
	}
	return answers
}

func TestLoadBuiltinBank(t *testing.T) {
	bank, err := Load()
	require.NoError(t, err)
	require.Equal(t, 15, bank.Len())

	perLevel := make(map[string]int)
	for _, q := range bank.Questions {
		perLevel[q.Level]++
	}
	assert.Equal(t, map[string]int{"A1": 5, "A2": 5, "B1": 5}, perLevel)
	assert.Equal(t, "perro", bank.Questions[0].Options[bank.Questions[0].Correct])
}

func TestCalculateLevel(t *testing.T) {
	bank, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name    string
		correct map[string]int
		want    string
	}{
		{"nothing right", map[string]int{}, "A1"},
		{"A1 failed even with perfect B1", map[string]int{"A1": 3, "A2": 5, "B1": 5}, "A1"},
		{"A1 passed, A2 failed, B1 perfect", map[string]int{"A1": 4, "A2": 2, "B1": 5}, "A1"},
		{"A1 and A2 passed, B1 failed", map[string]int{"A1": 5, "A2": 3, "B1": 2}, "A2"},
		{"all thresholds met", map[string]int{"A1": 4, "A2": 3, "B1": 3}, "B1"},
		{"perfect", map[string]int{"A1": 5, "A2": 5, "B1": 5}, "B1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bank.CalculateLevel(answersFor(bank, tt.correct)))
		})
	}
}

func TestCanRetake(t *testing.T) {
	now := time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)
	cooldown := 30 * 24 * time.Hour
	at := func(daysAgo int) *time.Time {
		v := now.AddDate(0, 0, -daysAgo)
		return &v
	}

	ok, _ := CanRetake(nil, now, cooldown, false)
	assert.True(t, ok)

	ok, left := CanRetake(at(10), now, cooldown, false)
	assert.False(t, ok)
	assert.Equal(t, 20, left)

	ok, _ = CanRetake(at(10), now, cooldown, true)
	assert.True(t, ok)

	ok, _ = CanRetake(at(30), now, cooldown, false)
	assert.True(t, ok)
}

func TestParseRejectsBadBank(t *testing.T) {
	_, err := Parse([]byte("questions: []"))
	assert.Error(t, err)

	_, err = Parse([]byte("questions:\n  - id: 1\n    options: [a]\n    correct: 3\n"))
	assert.Error(t, err)
}

func TestMotivation(t *testing.T) {
	assert.NotEmpty(t, Motivation(5))
	assert.NotEmpty(t, Motivation(10))
	assert.Empty(t, Motivation(3))
}
