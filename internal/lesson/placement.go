package lesson

import (
	"fmt"
	"strings"

	"github.com/example/espbot/internal/content"
	"github.com/example/espbot/internal/placement"
	"github.com/example/espbot/internal/session"
	"go.uber.org/zap"
)

// startPlacement begins the level test if the cooldown allows it
func (t *turn) startPlacement() ([]Reply, error) {
	if t.placement == nil || t.placement.Len() == 0 {
		return []Reply{{Text: "📝 Тест уровня сейчас недоступен."}}, nil
	}

	levelCompleted := false
	if track, ok := content.ParseTrack(t.user.Level); ok {
		total := t.content.TrackLength(track)
		levelCompleted = total > 0 && t.user.Progress(string(track)) >= total
	}
	ok, daysLeft := placement.CanRetake(t.user.LastLevelTestAt, t.now(), t.levelTestCooldown, levelCompleted)
	if !ok {
		return []Reply{{
			Text:    fmt.Sprintf("📝 Тест уровня можно пройти повторно через %d дн. или после завершения текущего уровня.", daysLeft),
			Buttons: [][]Button{menuRow()},
		}}, nil
	}

	t.setState(session.State{Mode: session.ModeQuiz, Quiz: &session.Quiz{Answers: map[int]int{}}})
	return []Reply{
		{Text: fmt.Sprintf("📝 Тест уровня: %d вопросов от A1 до B1. Выбирай ответ кнопкой.", t.placement.Len())},
		t.placementQuestion(0),
	}, nil
}

func (t *turn) placementQuestion(i int) Reply {
	q := t.placement.Questions[i]
	rows := make([][]Button, 0, len(q.Options))
	for j, opt := range q.Options {
		rows = append(rows, []Button{{Text: opt, Data: placementData(i, j)}})
	}
	return Reply{
		Text:    fmt.Sprintf("Вопрос %d/%d\n\n%s", i+1, t.placement.Len(), q.Question),
		Buttons: rows,
	}
}

func (t *turn) answerPlacement(question, option int) ([]Reply, error) {
	qz := t.st.Quiz
	// повторное нажатие на уже отвеченный вопрос
	if qz == nil || question != qz.Index {
		return nil, nil
	}
	if question >= t.placement.Len() || option < 0 || option >= len(t.placement.Questions[question].Options) {
		return []Reply{{Text: msgStale}}, nil
	}
	if qz.Answers == nil {
		qz.Answers = map[int]int{}
	}
	qz.Answers[question] = option
	qz.Index++
	t.dirty = true

	if qz.Index < t.placement.Len() {
		var replies []Reply
		if m := placement.Motivation(qz.Index); m != "" {
			replies = append(replies, Reply{Text: m})
		}
		return append(replies, t.placementQuestion(qz.Index)), nil
	}

	level := t.placement.CalculateLevel(qz.Answers)
	if err := t.users.RecordLevelTest(t.ctx, t.id, level, t.now()); err != nil {
		t.log().Error("failed to save level test", zap.String("level", level), zap.Error(err))
		t.dirty = false
		return []Reply{{Text: "⚠️ Не удалось сохранить результат теста. Нажми на ответ ещё раз."}}, nil
	}
	t.setState(session.Idle())

	score := t.placement.Score(qz.Answers)
	totals := map[string]int{}
	for _, q := range t.placement.Questions {
		totals[q.Level]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎯 Твой уровень: %s\n", level)
	for _, th := range placement.Thresholds {
		fmt.Fprintf(&b, "\n%s: %d/%d", th.Level, score[th.Level], totals[th.Level])
	}
	return []Reply{{Text: b.String(), Buttons: [][]Button{
		{{Text: "📚 Начать обучение", Data: DataLearn}},
		menuRow(),
	}}}, nil
}
