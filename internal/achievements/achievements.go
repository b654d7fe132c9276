package achievements

import (
	"context"
	"fmt"
	"time"

	"github.com/example/espbot/pkg/models"
)

// Achievement describes a badge
type Achievement struct {
	Code        string
	Title       string
	Description string
}

// Rule unlocks an achievement when the condition holds for the user snapshot
type Rule struct {
	Achievement
	Check func(u *models.User) bool
}

// Rules are evaluated in this order
var Rules = []Rule{
	{Achievement{"first_lesson", "Первый шаг", "Пройден первый урок"},
		func(u *models.User) bool { return u.TotalLessons() >= 1 }},
	{Achievement{"five_lessons", "Набираем темп", "Пройдено 5 уроков"},
		func(u *models.User) bool { return u.TotalLessons() >= 5 }},
	{Achievement{"streak3", "Три дня подряд", "Занятия 3 дня подряд"},
		func(u *models.User) bool { return u.Streak >= 3 }},
	{Achievement{"streak7", "Неделя без пропусков", "Занятия 7 дней подряд"},
		func(u *models.User) bool { return u.Streak >= 7 }},
	{Achievement{"words20", "Словарный запас", "Выучено 20 слов"},
		func(u *models.User) bool { return u.WordsLearned >= 20 }},
	{Achievement{"first_voice", "Первый голос", "Выполнено первое голосовое задание"},
		func(u *models.User) bool { return u.VoicePracticeCount >= 1 }},
	{Achievement{"xp50", "50 XP", "Набрано 50 очков опыта"},
		func(u *models.User) bool { return u.XP >= 50 }},
	{Achievement{"xp200", "200 XP", "Набрано 200 очков опыта"},
		func(u *models.User) bool { return u.XP >= 200 }},
}

// Store records unlocked achievements; Unlock reports whether the row is new
type Store interface {
	Unlock(ctx context.Context, telegramID int64, code string, at time.Time) (bool, error)
	List(ctx context.Context, telegramID int64) ([]models.Achievement, error)
}

// Evaluator checks the rules against a user snapshot
type Evaluator struct {
	store Store
	rules []Rule
	now   func() time.Time
}

// NewEvaluator creates an evaluator with the standard rules
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store, rules: Rules, now: time.Now}
}

// Evaluate unlocks every achievement the user qualifies for and returns the new ones
func (e *Evaluator) Evaluate(ctx context.Context, u *models.User) ([]Achievement, error) {
	var unlocked []Achievement
	for _, r := range e.rules {
		if !r.Check(u) {
			continue
		}
		fresh, err := e.store.Unlock(ctx, u.TelegramID, r.Code, e.now())
		if err != nil {
			return unlocked, fmt.Errorf("failed to evaluate achievements: %w", err)
		}
		if fresh {
			unlocked = append(unlocked, r.Achievement)
		}
	}
	return unlocked, nil
}

// Unlocked returns the user's achievements in unlock order. Codes without a
// rule are skipped.
func (e *Evaluator) Unlocked(ctx context.Context, telegramID int64) ([]Achievement, error) {
	rows, err := e.store.List(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	list := make([]Achievement, 0, len(rows))
	for _, row := range rows {
		if a, ok := Lookup(row.Code); ok {
			list = append(list, a)
		}
	}
	return list, nil
}

// Lookup returns the description of a code
func Lookup(code string) (Achievement, bool) {
	for _, r := range Rules {
		if r.Code == code {
			return r.Achievement, true
		}
	}
	return Achievement{}, false
}
