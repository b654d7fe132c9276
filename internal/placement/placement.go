package placement

import (
	_ "embed"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var questionsYAML []byte

// Question is one item of the placement test
type Question struct {
	ID       int      `yaml:"id"`
	Level    string   `yaml:"level"`
	Skill    string   `yaml:"skill"`
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
	Correct  int      `yaml:"correct"`
}

// Threshold is the number of correct answers a level needs
type Threshold struct {
	Level string
	Min   int
}

// Thresholds are checked in order; a level counts only when all lower ones passed
var Thresholds = []Threshold{
	{Level: "A1", Min: 4},
	{Level: "A2", Min: 3},
	{Level: "B1", Min: 3},
}

// Bank is the ordered question set
type Bank struct {
	Questions []Question `yaml:"questions"`
}

// Load parses the built-in question bank
func Load() (*Bank, error) {
	return Parse(questionsYAML)
}

// Parse reads a question bank from YAML
func Parse(data []byte) (*Bank, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	if len(bank.Questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	for _, q := range bank.Questions {
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			return nil, fmt.Errorf("question %d: correct option %d out of range", q.ID, q.Correct)
		}
	}
	return &bank, nil
}

// Len returns the number of questions
func (b *Bank) Len() int {
	return len(b.Questions)
}

// Score counts correct answers per level. answers maps question index to option index.
func (b *Bank) Score(answers map[int]int) map[string]int {
	score := make(map[string]int)
	for i, q := range b.Questions {
		if opt, ok := answers[i]; ok && opt == q.Correct {
			score[q.Level]++
		}
	}
	return score
}

// CalculateLevel places the user: failing a level's threshold caps the result
// at that level (A1 is the floor), passing all of them gives the top level
func (b *Bank) CalculateLevel(answers map[int]int) string {
	score := b.Score(answers)
	level := Thresholds[0].Level
	for _, t := range Thresholds {
		if score[t.Level] < t.Min {
			return level
		}
		level = t.Level
	}
	return level
}

// CanRetake decides whether the test may be taken again. It is allowed when
// it was never taken, after the cooldown, or once the current level is done.
// daysLeft is the rounded-up wait otherwise.
func CanRetake(lastTest *time.Time, now time.Time, cooldown time.Duration, levelCompleted bool) (bool, int) {
	if lastTest == nil || levelCompleted {
		return true, 0
	}
	wait := lastTest.Add(cooldown).Sub(now)
	if wait <= 0 {
		return true, 0
	}
	return false, int(math.Ceil(wait.Hours() / 24))
}

// Motivation returns an encouragement shown before the question with the given index
func Motivation(index int) string {
	switch index {
	case 5:
		return "💪 Отлично, треть пути позади! Дальше вопросы посложнее."
	case 10:
		return "🔥 Осталось совсем немного, держись!"
	}
	return ""
}
