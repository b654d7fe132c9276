package lesson

import (
	"fmt"
	"strings"

	"github.com/example/espbot/internal/ai"
	"github.com/example/espbot/internal/content"
	"github.com/example/espbot/internal/metrics"
	"github.com/example/espbot/internal/session"
	"github.com/example/espbot/internal/spaced_repetition"
	"github.com/example/espbot/pkg/models"
	"go.uber.org/zap"
)

func (t *turn) startExercises(l *content.Lesson) ([]Reply, error) {
	if len(l.Exercises) == 0 {
		return t.completeLesson(l)
	}
	t.setState(session.AtLesson(session.ModeExercises, string(l.Track), l.Number))
	return []Reply{{Text: "✏️ Упражнения"}, t.exerciseReply(l, 0)}, nil
}

// exerciseReply renders an exercise; voice exercises are answered with a voice message
func (t *turn) exerciseReply(l *content.Lesson, i int) Reply {
	ex := l.Exercises[i]

	header := fmt.Sprintf("Упражнение %d/%d", i+1, len(l.Exercises))
	if ex.FromQuiz {
		header = fmt.Sprintf("📝 Вопрос %d/%d", i+1, len(l.Exercises))
	}
	finish := []Button{{Text: "⏹ Завершить урок", Data: DataFinish}}

	switch ex.Type {
	case content.ExerciseChoice:
		var rows [][]Button
		for j, opt := range ex.Options {
			rows = append(rows, []Button{{Text: opt, Data: choiceData(i, j)}})
		}
		return Reply{Text: fmt.Sprintf("❓ %s\n\n%s", header, ex.Text()), Buttons: append(rows, finish)}

	case content.ExerciseFillText:
		return Reply{
			Text:    fmt.Sprintf("✍️ %s\n\n%s\n\nНапиши пропущенное слово.", header, ex.Text()),
			Buttons: [][]Button{finish},
		}

	case content.ExerciseDialogue:
		text := fmt.Sprintf("💬 %s\n\n%s", header, ex.Text())
		if ex.TaskRu != "" {
			text += "\n\n" + ex.TaskRu
		}
		return Reply{Text: text + "\n\nОтветь по-испански.", Buttons: [][]Button{finish}}

	case content.ExerciseVoice:
		text := fmt.Sprintf("🎙 %s\n\nСкажи вслух и отправь голосовое сообщение:\n\n%s", header, ex.Expected)
		if ex.TaskRu != "" {
			text += "\n(" + ex.TaskRu + ")"
		}
		return Reply{Text: text, Buttons: [][]Button{
			{{Text: "⏭ Пропустить", Data: DataSkip}},
			finish,
		}}
	}
	return Reply{Text: header}
}

func (t *turn) current(l *content.Lesson) (content.Exercise, bool) {
	i := t.st.ExerciseIndex
	if i < 0 || i >= len(l.Exercises) {
		return content.Exercise{}, false
	}
	return l.Exercises[i], true
}

func (t *turn) answerChoice(l *content.Lesson, exercise, option int) ([]Reply, error) {
	ex, ok := t.current(l)
	// кнопки старых упражнений
	if !ok || exercise != t.st.ExerciseIndex || ex.Type != content.ExerciseChoice ||
		option < 0 || option >= len(ex.Options) {
		return []Reply{{Text: msgStale}}, nil
	}
	return t.judgedChoice(l, ex, option == ex.CorrectIndex)
}

func (t *turn) judgedChoice(l *content.Lesson, ex content.Exercise, correct bool) ([]Reply, error) {
	if correct {
		return t.advance(l, Reply{Text: "✅ Верно!"})
	}

	right := ex.CorrectOption()
	if ex.FromQuiz {
		t.recordMistake(l, ex, models.ItemTypeExercise, ex.Text(), right)
	} else {
		answer := content.RussianHint(ex.Text())
		if c, ok := l.CardBySpanish(right); ok && c.Meaning() != "" {
			answer = c.Meaning()
		}
		if answer == "" {
			answer = right
		}
		t.recordMistake(l, ex, spaced_repetition.ItemTypeFor(right), right, answer)
	}
	return t.advance(l, Reply{Text: "❌ Неверно. Правильный ответ: " + right})
}

func (t *turn) answerText(l *content.Lesson, text string) ([]Reply, error) {
	ex, ok := t.current(l)
	if !ok {
		return []Reply{{Text: msgStale}}, nil
	}

	switch ex.Type {
	case content.ExerciseChoice:
		if !ex.FromQuiz {
			return []Reply{{Text: "Выбери ответ, нажав на кнопку."}}, nil
		}
		return t.judgedChoice(l, ex, spaced_repetition.IsAnswerCorrect(text, ex.CorrectOption()))

	case content.ExerciseFillText:
		return t.answerFill(l, ex, text)

	case content.ExerciseDialogue:
		return t.answerDialogue(l, ex, text)

	case content.ExerciseVoice:
		return []Reply{{Text: "🎙 Здесь нужен голосовой ответ. Запиши голосовое или нажми «Пропустить»."}}, nil
	}
	return []Reply{{Text: msgStale}}, nil
}

func (t *turn) answerFill(l *content.Lesson, ex content.Exercise, text string) ([]Reply, error) {
	correct := spaced_repetition.IsAnswerCorrect(text, ex.Answer)
	feedback := "✅ Верно!"
	if !correct {
		var err error
		correct, feedback, err = t.judge.JudgeFillText(t.ctx, text, ex.Answer)
		if err != nil {
			return t.judgeFailed("fill_text", err)
		}
	}

	if !correct {
		contentText := content.FillBlank(ex.Text(), ex.Answer)
		answer := content.RussianHint(ex.Text())
		if answer == "" {
			answer = ex.Answer
		}
		t.recordMistake(l, ex, models.ItemTypeExercise, contentText, answer)
	}
	return t.advance(l, Reply{Text: feedback})
}

func (t *turn) answerDialogue(l *content.Lesson, ex content.Exercise, text string) ([]Reply, error) {
	feedback, err := t.judge.JudgeDialogue(t.ctx, text, ex.Text(), l.Theory)
	if err != nil {
		return t.judgeFailed("dialogue", err)
	}

	if ai.DialogueFailed(feedback) {
		contentText, answer := ex.ReviewContent, ex.ReviewAnswer
		if contentText == "" || answer == "" {
			contentText, answer = ex.Text(), ex.Text()
		}
		t.recordMistake(l, ex, models.ItemTypeExercise, contentText, answer)
	}
	return t.advance(l, Reply{Text: feedback})
}

func (t *turn) skip(l *content.Lesson) ([]Reply, error) {
	return t.advance(l, Reply{Text: "⏭ Пропущено"})
}

// voice transcribes a voice message. Inside an exercise it is taken as the
// answer, otherwise the recognized text is echoed back.
func (t *turn) voice(path string) ([]Reply, error) {
	if t.transcriber == nil {
		return []Reply{{Text: "🎙 Распознавание речи сейчас недоступно."}}, nil
	}

	text, err := t.transcriber.Transcribe(t.ctx, path)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			t.log().Warn("failed to transcribe voice", zap.Error(err))
		}
		metrics.JudgmentFailures.WithLabelValues("transcribe").Inc()
		return []Reply{{Text: "🎙 Не удалось распознать речь. Попробуй записать ещё раз."}}, nil
	}
	heard := Reply{Text: "🎙 Я услышал: " + text}

	if t.st.Mode != session.ModeExercises {
		return []Reply{heard}, nil
	}

	replies, err := t.withLesson(func(l *content.Lesson) ([]Reply, error) {
		ex, ok := t.current(l)
		if ok && ex.Type == content.ExerciseVoice {
			return t.answerVoice(l, ex, text)
		}
		return t.answerText(l, text)
	})
	return append([]Reply{heard}, replies...), err
}

func (t *turn) answerVoice(l *content.Lesson, ex content.Exercise, text string) ([]Reply, error) {
	correct, feedback, corrected, err := t.judge.JudgeVoiceAnswer(t.ctx, ex.Expected, text)
	if err != nil {
		return t.judgeFailed("voice", err)
	}

	var msg string
	if correct {
		msg = "✅ Отлично!\n\n" + feedback
	} else {
		msg = "❌ Почти получилось.\n\n" + feedback
		if corrected != "" {
			msg += "\n\n👉 Правильно: " + corrected
		}

		contentText := ex.ReviewContent
		if contentText == "" {
			contentText = ex.Expected
		}
		answer := ex.ReviewAnswer
		if answer == "" {
			answer = ex.TaskRu
		}
		if answer == "" {
			answer = ex.Expected
		}
		t.recordMistake(l, ex, models.ItemTypeExercise, contentText, answer)
	}
	msg += fmt.Sprintf("\n\n+%d XP", xpVoice)

	t.bestEffort("add xp", t.users.AddXP(t.ctx, t.id, xpVoice))
	t.bestEffort("count voice practice", t.users.IncrementVoicePractice(t.ctx, t.id))

	replies, err := t.advance(l, Reply{Text: msg})
	if err != nil {
		return nil, err
	}
	// достижения показываем после ответа, но до следующего упражнения
	out := append([]Reply{replies[0]}, t.rewards()...)
	return append(out, replies[1:]...), nil
}

// advance moves past the current exercise and completes the lesson after the last one
func (t *turn) advance(l *content.Lesson, feedback Reply) ([]Reply, error) {
	t.st.ExerciseIndex++
	t.dirty = true

	replies := []Reply{feedback}
	if t.st.ExerciseIndex >= len(l.Exercises) {
		more, err := t.completeLesson(l)
		return append(replies, more...), err
	}
	return append(replies, t.exerciseReply(l, t.st.ExerciseIndex)), nil
}

// recordMistake schedules the missed exercise for review. A failure here
// does not block the lesson.
func (t *turn) recordMistake(l *content.Lesson, ex content.Exercise, itemType models.ItemType, contentText, answer string) {
	itemID := l.ItemID(t.st.ExerciseIndex)
	if _, err := t.reviews.RecordMistake(t.ctx, t.id, itemID, itemType, contentText, answer, 0); err != nil {
		t.log().Warn("failed to record mistake", zap.String("item_id", itemID), zap.Error(err))
		return
	}
	metrics.MistakesRecorded.WithLabelValues(string(ex.Type)).Inc()
}

func (t *turn) judgeFailed(kind string, err error) ([]Reply, error) {
	t.log().Warn("answer judgment failed", zap.String("kind", kind), zap.Error(err))
	metrics.JudgmentFailures.WithLabelValues(kind).Inc()
	return []Reply{{Text: msgJudgeFailed}}, nil
}
