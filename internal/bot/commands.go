package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/espbot/internal/lesson"
	"github.com/example/espbot/pkg/models"
	"go.uber.org/zap"
)

const helpText = `Команды:
/learn - продолжить обучение
/review - повторить ошибки
/test - тест уровня
/profile - профиль и прогресс
/menu - главное меню`

var commands = map[string]lesson.EventKind{
	"start":   lesson.EventStart,
	"menu":    lesson.EventMenu,
	"learn":   lesson.EventLearn,
	"review":  lesson.EventReview,
	"test":    lesson.EventPlacement,
	"profile": lesson.EventProfile,
}

func commandEvent(cmd string) (lesson.Event, bool) {
	kind, ok := commands[cmd]
	if !ok {
		return lesson.Event{}, false
	}
	return lesson.Event{Kind: kind}, true
}

// plural picks the Russian word form for n: 1 слово, 2 слова, 5 слов
func plural(n int, one, few, many string) string {
	n %= 100
	if n < 0 {
		n = -n
	}
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	}
	return many
}

func reminderText(count int) string {
	return fmt.Sprintf("⏰ У тебя %d %s для повторения. Пара минут, и они закрепятся!",
		count, plural(count, "слово", "слова", "слов"))
}

// remindCommand runs the admin /remind: without arguments every user with due
// items is reminded, "/remind <id>" reminds one user
func remindCommand(ctx context.Context, r ReminderRunner, args string, logger *zap.Logger) string {
	if r == nil {
		return "Напоминания выключены."
	}

	args = strings.TrimSpace(args)
	if args == "" {
		sent, err := r.RunCheck(ctx)
		if err != nil {
			logger.Error("manual reminder check failed", zap.Error(err))
			return "⚠️ Не удалось разослать напоминания."
		}
		return fmt.Sprintf("Напоминания отправлены: %d", sent)
	}

	userID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		return "Использование: /remind или /remind <telegram_id>"
	}
	count, err := r.RunManualCheck(ctx, userID)
	if err != nil {
		logger.Error("manual reminder failed", zap.Int64("telegram_id", userID), zap.Error(err))
		return "⚠️ Не удалось отправить напоминание."
	}
	if count == 0 {
		return fmt.Sprintf("У пользователя %d нечего повторять.", userID)
	}
	return fmt.Sprintf("Напоминание отправлено: %d %s", count, plural(count, "слово", "слова", "слов"))
}

func statisticsText(s *models.Statistics) string {
	return fmt.Sprintf(`📊 Статистика
Пользователей: %d (сегодня активны: %d)
Пройдено уроков: %d
Тестов уровня: %d
Карточек на повторении: %d, ждут сейчас: %d
Достижений: %d`,
		s.Users, s.ActiveToday, s.LessonsCompleted, s.LevelTests, s.ReviewItems, s.DueItems, s.Achievements)
}
