package lesson

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/espbot/internal/database"
	"github.com/example/espbot/internal/metrics"
	"github.com/example/espbot/internal/session"
	"github.com/example/espbot/internal/spaced_repetition"
	"github.com/example/espbot/pkg/models"
	"go.uber.org/zap"
)

// startReview opens a batch of due items. With thenLesson the next lesson
// starts when the batch is done.
func (t *turn) startReview(thenLesson bool) ([]Reply, error) {
	items, err := t.reviews.DueItems(t.ctx, t.id, t.reviewLimit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		if thenLesson {
			return t.learn(false)
		}
		return []Reply{{
			Text:    "🎉 Сейчас нечего повторять. Ошибки из уроков появятся здесь.",
			Buttons: [][]Button{{{Text: "📚 Учиться", Data: DataLearn}}, menuRow()},
		}}, nil
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	t.setState(session.State{
		Mode:   session.ModeReview,
		Review: &session.Review{ItemIDs: ids, ThenLesson: thenLesson},
	})

	intro := fmt.Sprintf("🔁 Повторим ошибки: %d", len(items))
	if thenLesson {
		intro = fmt.Sprintf("🔁 Перед новым уроком повторим ошибки: %d", len(items))
	}
	return []Reply{{Text: intro}, reviewPrompt(&items[0], 0, len(ids))}, nil
}

func reviewPrompt(item *models.ReviewItem, i, total int) Reply {
	label := "Слово"
	if strings.Contains(strings.TrimSpace(item.Content), " ") {
		label = "Фраза"
	}
	return Reply{
		Text: fmt.Sprintf("🔁 %d/%d\n\n%s: %s\n\nНапиши перевод.", i+1, total, label, item.Content),
		Buttons: [][]Button{
			{{Text: "⏹ Закончить повторение", Data: DataReviewFinish}},
		},
	}
}

func (t *turn) answerReview(text string) ([]Reply, error) {
	r := t.st.Review
	if r == nil || r.Index >= len(r.ItemIDs) {
		return t.finishReview()
	}

	item, err := t.reviews.Item(t.ctx, r.ItemIDs[r.Index])
	if errors.Is(err, database.ErrNotFound) {
		r.Index++
		t.dirty = true
		return t.nextReview(nil)
	}
	if err != nil {
		return nil, err
	}

	correct := item.Answer == "" || spaced_repetition.IsAnswerCorrect(text, item.Answer)
	if !correct {
		correct, err = t.judge.JudgeTranslationEquivalence(t.ctx, text, item.Answer, item.Content)
		if err != nil {
			return t.judgeFailed("translation", err)
		}
	}

	retired, err := t.reviews.RecordAnswer(t.ctx, item, correct)
	if err != nil {
		t.log().Error("failed to record review answer", zap.Int64("item_id", item.ID), zap.Error(err))
		return []Reply{{Text: "⚠️ Не удалось сохранить ответ. Отправь его ещё раз."}}, nil
	}

	var feedback string
	if correct {
		metrics.ReviewAnswers.WithLabelValues("correct").Inc()
		feedback = "✅ Верно!"
		if retired {
			metrics.ReviewItemsRetired.Inc()
			feedback += "\n🎓 Выучено! Больше не будет в повторении."
		}
	} else {
		metrics.ReviewAnswers.WithLabelValues("wrong").Inc()
		feedback = "❌ Неверно. Правильный ответ: " + item.Answer
	}

	r.Index++
	r.Reviewed++
	t.dirty = true
	return t.nextReview([]Reply{{Text: feedback}})
}

// nextReview shows the next item still present or ends the batch
func (t *turn) nextReview(replies []Reply) ([]Reply, error) {
	r := t.st.Review
	for r.Index < len(r.ItemIDs) {
		item, err := t.reviews.Item(t.ctx, r.ItemIDs[r.Index])
		if errors.Is(err, database.ErrNotFound) {
			r.Index++
			continue
		}
		if err != nil {
			// the answer is already stored, keep the position
			t.log().Error("failed to load review item", zap.Error(err))
			return append(replies, Reply{Text: msgStorage}), nil
		}
		return append(replies, reviewPrompt(item, r.Index, len(r.ItemIDs))), nil
	}

	more, err := t.finishReview()
	return append(replies, more...), err
}

func (t *turn) finishReview() ([]Reply, error) {
	var reviewed int
	var thenLesson bool
	if r := t.st.Review; r != nil {
		reviewed, thenLesson = r.Reviewed, r.ThenLesson
	}
	t.setState(session.Idle())

	xp := reviewed * xpReview
	if xp > 0 {
		t.bestEffort("add xp", t.users.AddXP(t.ctx, t.id, xp))
		// повторение тоже считается занятием за день
		_, err := t.users.UpdateStreak(t.ctx, t.id, t.now())
		t.bestEffort("update streak", err)
	}

	text := fmt.Sprintf("✅ Повторение завершено. Повторено: %d, +%d XP", reviewed, xp)
	remaining, err := t.reviews.DueCount(t.ctx, t.id)
	t.bestEffort("count due reviews", err)
	if remaining > 0 {
		text += fmt.Sprintf("\n\nЕщё ждут повторения: %d", remaining)
	}

	replies := []Reply{{Text: text}}
	if xp > 0 {
		replies = append(replies, t.rewards()...)
	}

	if thenLesson {
		more, err := t.learn(false)
		return append(replies, more...), err
	}
	replies[0].Buttons = [][]Button{{{Text: "📚 Учиться", Data: DataLearn}}, menuRow()}
	return replies, nil
}
