package spaced_repetition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLadderNext(t *testing.T) {
	ladder := Ladder(DefaultIntervals)

	tests := []struct {
		name      string
		interval  int
		correct   bool
		next      int
		graduated bool
	}{
		{"fresh mistake answered correctly", 0, true, 3, false},
		{"1 -> 3", 1, true, 3, false},
		{"3 -> 7", 3, true, 7, false},
		{"7 -> 14", 7, true, 14, false},
		{"14 graduates", 14, true, 0, true},
		{"unknown interval counts as first step", 5, true, 3, false},
		{"wrong at 14 resets", 14, false, 1, false},
		{"wrong at 3 resets", 3, false, 1, false},
		{"wrong fresh item", 0, false, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, graduated := ladder.Next(tt.interval, tt.correct)
			assert.Equal(t, tt.graduated, graduated)
			if !tt.graduated {
				assert.Equal(t, tt.next, next)
			}
		})
	}
}

func TestLadderCorrectSequenceStrictlyAdvances(t *testing.T) {
	ladder := Ladder(DefaultIntervals)
	interval := 1
	seen := []int{interval}
	for {
		next, graduated := ladder.Next(interval, true)
		if graduated {
			break
		}
		assert.Greater(t, next, interval)
		interval = next
		seen = append(seen, interval)
	}
	assert.Equal(t, []int{1, 3, 7, 14}, seen)
}

func TestIsAnswerCorrect(t *testing.T) {
	tests := []struct {
		user, expected string
		want           bool
	}{
		{"Vivimos", "vivimos.", true},
		{"vivo", "vivimos", false},
		{"  buenos   días! ", "Buenos días", true},
		{"¿Cómo estás?", "cómo estás", true},
		{"hasta luego", "hasta-luego", true},
		{"Me llamo Ana", "me llamo ana —", true},
		{"", "hola", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAnswerCorrect(tt.user, tt.expected), "%q vs %q", tt.user, tt.expected)
	}
}
