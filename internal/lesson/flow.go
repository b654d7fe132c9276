package lesson

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/espbot/internal/content"
	"github.com/example/espbot/internal/metrics"
	"github.com/example/espbot/internal/session"
	"go.uber.org/zap"
)

const (
	msgStorage     = "⚠️ Что-то пошло не так. Попробуй ещё раз чуть позже."
	msgStale       = "Это действие сейчас недоступно. Открой /menu."
	msgIdleText    = "Я жду команду. Нажми «Учиться», чтобы продолжить урок."
	msgJudgeFailed = "⚠️ Не получилось проверить ответ. Попробуй отправить его ещё раз."
	msgSaveFailed  = "⚠️ Не удалось сохранить прогресс урока. Нажми «Повторить»."
	msgAborted     = "Урок прерван. Он засчитается, когда ты дойдёшь до конца."
)

func isNotFound(err error) bool {
	return errors.Is(err, content.ErrLessonNotFound)
}

func menuRow() []Button {
	return []Button{{Text: "🏠 Меню", Data: DataMenu}}
}

func (t *turn) start() ([]Reply, error) {
	if t.user.Level == "" {
		return t.onboarding(), nil
	}
	name := t.user.FirstName
	if name == "" {
		name = t.user.Username
	}
	return t.menu(fmt.Sprintf("¡Hola, %s! С возвращением 👋", name))
}

func (t *turn) onboarding() []Reply {
	return []Reply{{
		Text: "¡Hola! 👋 Я помогу тебе выучить испанский.\n\n" +
			"Можно начать с самого начала или пройти короткий тест, чтобы определить уровень.",
		Buttons: [][]Button{
			{{Text: "🌱 Учить с нуля", Data: DataPathZero}},
			{{Text: "📝 Пройти тест уровня", Data: DataPathTest}},
		},
	}}
}

func (t *turn) menu(header string) ([]Reply, error) {
	due, err := t.reviews.DueCount(t.ctx, t.id)
	t.bestEffort("count due reviews", err)

	review := "🔁 Повторение"
	if due > 0 {
		review = fmt.Sprintf("🔁 Повторение (%d)", due)
	}
	return []Reply{{
		Text: header,
		Buttons: [][]Button{
			{{Text: "📚 Продолжить обучение", Data: DataLearn}},
			{{Text: review, Data: DataReview}},
			{{Text: "📝 Тест уровня", Data: DataPlacement}, {Text: "👤 Профиль", Data: DataProfile}},
		},
	}}, nil
}

func (t *turn) profile() ([]Reply, error) {
	u := t.user
	due, err := t.reviews.DueCount(t.ctx, t.id)
	t.bestEffort("count due reviews", err)

	level := u.Level
	if level == "" {
		level = "не выбран"
	}

	var b strings.Builder
	b.WriteString("👤 Профиль\n\n")
	fmt.Fprintf(&b, "Уровень: %s\n", level)
	fmt.Fprintf(&b, "⭐ XP: %d\n", u.XP)
	fmt.Fprintf(&b, "🔥 Серия: %d дн.\n", u.Streak)
	fmt.Fprintf(&b, "📚 Выучено слов: %d\n", u.WordsLearned)
	fmt.Fprintf(&b, "🎙 Голосовых заданий: %d\n", u.VoicePracticeCount)
	fmt.Fprintf(&b, "🔁 Ждут повторения: %d\n", due)
	fmt.Fprintf(&b, "📝 Тестов уровня: %d\n", u.LevelTestCount)

	for _, track := range []content.Track{content.TrackZero, content.TrackA1, content.TrackA2, content.TrackB1} {
		total := t.content.TrackLength(track)
		if total == 0 {
			continue
		}
		desc, _ := content.Describe(track)
		done := u.Progress(string(track))
		fmt.Fprintf(&b, "\n%s: %s %d/%d", desc.Name, progressBar(done, total, 10), done, total)
	}

	if t.achievements != nil {
		unlocked, err := t.achievements.Unlocked(t.ctx, t.id)
		t.bestEffort("list achievements", err)
		fmt.Fprintf(&b, "\n\n🏆 Достижения: %d", len(unlocked))
		for _, a := range unlocked {
			fmt.Fprintf(&b, "\n• %s", a.Title)
		}
	}

	return []Reply{{Text: b.String(), Buttons: [][]Button{menuRow()}}}, nil
}

func progressBar(done, total, width int) string {
	if total <= 0 {
		return ""
	}
	if done > total {
		done = total
	}
	filled := done * width / total
	return strings.Repeat("▓", filled) + strings.Repeat("░", width-filled)
}

func (t *turn) choosePath(path string) ([]Reply, error) {
	switch path {
	case "test":
		return t.startPlacement()
	case "zero":
		if t.user.Level == "" {
			if err := t.users.SetLevel(t.ctx, t.id, string(content.TrackA1)); err != nil {
				return nil, err
			}
			t.user.Level = string(content.TrackA1)
		}
		return t.learn(true)
	}
	return []Reply{{Text: msgStale}}, nil
}

// resolveTrack picks the track to study: beginners without a placement test
// go through ZERO first
func (t *turn) resolveTrack() content.Track {
	u := t.user
	if u.Level == "" || u.Level == string(content.TrackA1) {
		if !u.HasTakenLevelTest() && u.ZeroProgress < t.content.TrackLength(content.TrackZero) {
			return content.TrackZero
		}
		return content.TrackA1
	}
	if track, ok := content.ParseTrack(u.Level); ok && track != content.TrackZero {
		return track
	}
	return content.TrackA1
}

// learn opens the next lesson of the current track. Due reviews go first.
func (t *turn) learn(reviewsFirst bool) ([]Reply, error) {
	if t.user.Level == "" {
		return t.onboarding(), nil
	}

	if reviewsFirst {
		due, err := t.reviews.DueCount(t.ctx, t.id)
		if err != nil {
			return nil, err
		}
		if due > 0 {
			return t.startReview(true)
		}
	}

	track := t.resolveTrack()
	return t.openLesson(track, t.user.Progress(string(track))+1, true)
}

func (t *turn) openLesson(track content.Track, n int, welcome bool) ([]Reply, error) {
	l, err := t.content.Lesson(track, n)
	if err != nil {
		if isNotFound(err) {
			t.setState(session.Idle())
			return t.trackComplete(track), nil
		}
		return nil, err
	}

	desc, _ := content.Describe(track)
	if welcome && n == 1 {
		t.setState(session.AtLesson(session.ModeWelcome, string(track), n))
		return []Reply{{
			Text: fmt.Sprintf("👋 Добро пожаловать в курс «%s»!\n\n"+
				"Каждый урок: новые слова на карточках и упражнения. Ошибки вернутся на повторение.", desc.Name),
			Buttons: [][]Button{{{Text: "▶️ Начать", Data: DataContinue}}},
		}}, nil
	}

	header := fmt.Sprintf("📘 Урок %d: %s", n, l.Title)
	if l.Description != "" {
		header += "\n\n" + l.Description
	}
	replies := []Reply{{Text: header}}

	if l.Theory != "" {
		t.setState(session.AtLesson(session.ModeTheory, string(track), n))
		return append(replies, Reply{
			Text: "📖 Теория\n\n" + l.Theory,
			Buttons: [][]Button{
				{{Text: "🃏 К карточкам", Data: DataToCards}},
				{{Text: "⏹ Завершить урок", Data: DataFinish}},
			},
		}), nil
	}

	more, err := t.startCards(l)
	return append(replies, more...), err
}

func (t *turn) startCards(l *content.Lesson) ([]Reply, error) {
	if len(l.Cards) == 0 {
		return t.startExercises(l)
	}
	t.setState(session.AtLesson(session.ModeCards, string(l.Track), l.Number))
	return []Reply{cardReply(l, 0)}, nil
}

// nextCard advances past the given card; buttons of other cards are stale
func (t *turn) nextCard(l *content.Lesson, card int) ([]Reply, error) {
	if card != t.st.CardIndex {
		return []Reply{{Text: msgStale}}, nil
	}
	t.st.CardIndex++
	t.dirty = true
	if t.st.CardIndex >= len(l.Cards) {
		return t.startExercises(l)
	}
	return []Reply{cardReply(l, t.st.CardIndex)}, nil
}

func cardReply(l *content.Lesson, i int) Reply {
	c := l.Cards[i]

	var b strings.Builder
	fmt.Fprintf(&b, "🃏 Карточка %d/%d\n\n%s", i+1, len(l.Cards), c.Spanish)
	if c.Transcription != "" {
		fmt.Fprintf(&b, " [%s]", c.Transcription)
	}
	if m := c.Meaning(); m != "" {
		fmt.Fprintf(&b, "\n👉 %s", m)
	}
	if c.Example != "" {
		fmt.Fprintf(&b, "\n\nПример: %s", c.Example)
	}
	if c.Note != "" {
		fmt.Fprintf(&b, "\n💡 %s", c.Note)
	}

	next := "➡️ Дальше"
	if i == len(l.Cards)-1 {
		next = "✏️ К упражнениям"
	}
	return Reply{Text: b.String(), Buttons: [][]Button{
		{{Text: next, Data: nextData(i)}},
		{{Text: "⏹ Завершить урок", Data: DataFinish}},
	}}
}

func (t *turn) abort() ([]Reply, error) {
	t.setState(session.Idle())
	return []Reply{{Text: msgAborted, Buttons: [][]Button{
		{{Text: "📚 Начать заново", Data: DataLearn}},
		menuRow(),
	}}}, nil
}

// completeLesson saves progress first; nothing else happens until it is stored
func (t *turn) completeLesson(l *content.Lesson) ([]Reply, error) {
	track, n := l.Track, l.Number
	t.setState(session.AtLesson(session.ModeCompleting, string(track), n))

	if err := t.users.SetTrackProgress(t.ctx, t.id, string(track), n); err != nil {
		t.log().Error("failed to save lesson progress",
			zap.String("track", string(track)), zap.Int("lesson", n), zap.Error(err))
		return []Reply{{Text: msgSaveFailed, Buttons: [][]Button{
			{{Text: "🔁 Повторить", Data: DataContinue}},
		}}}, nil
	}
	t.setState(session.Idle())
	metrics.LessonsCompleted.WithLabelValues(string(track)).Inc()

	if len(l.Cards) > 0 {
		t.bestEffort("credit learned words", t.users.IncrementWordsLearned(t.ctx, t.id, len(l.Cards)))
	}
	_, err := t.users.UpdateStreak(t.ctx, t.id, t.now())
	t.bestEffort("update streak", err)
	t.bestEffort("add xp", t.users.AddXP(t.ctx, t.id, xpLesson))

	text := l.SuccessMessage
	if text == "" {
		text = fmt.Sprintf("🎉 Урок %d пройден!", n)
	}
	text += fmt.Sprintf("\n\n+%d XP", xpLesson)

	replies := []Reply{{Text: text}}
	replies = append(replies, t.rewards()...)

	if t.content.LessonExists(track, n+1) {
		return append(replies, Reply{
			Text: "Готов к следующему уроку?",
			Buttons: [][]Button{
				{{Text: "▶️ Следующий урок", Data: DataNextLesson}},
				menuRow(),
			},
		}), nil
	}
	return append(replies, t.trackComplete(track)...), nil
}

func (t *turn) trackComplete(track content.Track) []Reply {
	desc, _ := content.Describe(track)

	var rows [][]Button
	text := fmt.Sprintf("🏁 Курс «%s» пройден!", desc.Name)
	if next, ok := content.Describe(desc.Next); ok {
		text += fmt.Sprintf("\n\nМожно переходить к курсу «%s» или пройти тест уровня.", next.Name)
		rows = append(rows, []Button{{Text: "▶️ " + next.Name, Data: trackData(next.Track)}})
	} else {
		text += "\n\nНовые уроки скоро появятся. А пока можно повторять ошибки или пройти тест уровня."
	}
	rows = append(rows, []Button{{Text: "📝 Тест уровня", Data: DataPlacement}}, menuRow())

	return []Reply{{Text: text, Buttons: rows}}
}

// moveToTrack switches to the next track once the one before it is finished
func (t *turn) moveToTrack(target content.Track) ([]Reply, error) {
	var prev content.Track
	for _, tr := range []content.Track{content.TrackZero, content.TrackA1, content.TrackA2} {
		if d, _ := content.Describe(tr); d.Next == target {
			prev = tr
		}
	}
	total := t.content.TrackLength(prev)
	if prev == "" || total == 0 || t.user.Progress(string(prev)) < total {
		return []Reply{{Text: msgStale}}, nil
	}

	if target != content.TrackA1 || t.user.Level == "" {
		if err := t.users.SetLevel(t.ctx, t.id, string(target)); err != nil {
			return nil, err
		}
		t.user.Level = string(target)
	}
	return t.learn(true)
}
