package lesson

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/espbot/internal/achievements"
	"github.com/example/espbot/internal/content"
	"github.com/example/espbot/internal/placement"
	"github.com/example/espbot/internal/session"
	"github.com/example/espbot/internal/spaced_repetition"
	"github.com/example/espbot/pkg/models"
	"go.uber.org/zap"
)

// Users is the user profile storage the engine needs
type Users interface {
	GetOrCreate(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error)
	Get(ctx context.Context, telegramID int64) (*models.User, error)
	SetTrackProgress(ctx context.Context, telegramID int64, track string, lessons int) error
	SetLevel(ctx context.Context, telegramID int64, level string) error
	RecordLevelTest(ctx context.Context, telegramID int64, level string, at time.Time) error
	AddXP(ctx context.Context, telegramID int64, xp int) error
	IncrementWordsLearned(ctx context.Context, telegramID int64, n int) error
	IncrementVoicePractice(ctx context.Context, telegramID int64) error
	UpdateStreak(ctx context.Context, telegramID int64, now time.Time) (int, error)
}

// Judge checks free-form answers
type Judge interface {
	JudgeFillText(ctx context.Context, userText, expected string) (bool, string, error)
	JudgeDialogue(ctx context.Context, userText, promptText, theory string) (string, error)
	JudgeTranslationEquivalence(ctx context.Context, userText, expected, source string) (bool, error)
	JudgeVoiceAnswer(ctx context.Context, expected, transcribed string) (bool, string, string, error)
}

// Transcriber turns a voice message into text
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Achievements unlocks rewards for a user snapshot and lists the unlocked ones
type Achievements interface {
	Evaluate(ctx context.Context, u *models.User) ([]achievements.Achievement, error)
	Unlocked(ctx context.Context, telegramID int64) ([]achievements.Achievement, error)
}

// Награды за действия
const (
	xpLesson = 10
	xpReview = 5
	xpVoice  = 20
)

// Deps wires the engine
type Deps struct {
	Users        Users
	Reviews      *spaced_repetition.Scheduler
	Content      *content.Loader
	Sessions     *session.Store
	Achievements Achievements
	Placement    *placement.Bank
	Judge        Judge
	Transcriber  Transcriber
	Logger       *zap.Logger

	// ReviewLimit caps one review session
	ReviewLimit       int
	LevelTestCooldown time.Duration
	Now               func() time.Time
}

// Engine drives lessons, reviews and the placement test for every track
type Engine struct {
	users        Users
	reviews      *spaced_repetition.Scheduler
	content      *content.Loader
	sessions     *session.Store
	achievements Achievements
	placement    *placement.Bank
	judge        Judge
	transcriber  Transcriber
	logger       *zap.Logger

	reviewLimit       int
	levelTestCooldown time.Duration
	now               func() time.Time

	// one event at a time per user
	locks sync.Map
}

// NewEngine creates an engine
func NewEngine(d Deps) *Engine {
	e := &Engine{
		users:             d.Users,
		reviews:           d.Reviews,
		content:           d.Content,
		sessions:          d.Sessions,
		achievements:      d.Achievements,
		placement:         d.Placement,
		judge:             d.Judge,
		transcriber:       d.Transcriber,
		logger:            d.Logger,
		reviewLimit:       d.ReviewLimit,
		levelTestCooldown: d.LevelTestCooldown,
		now:               d.Now,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.reviewLimit <= 0 {
		e.reviewLimit = 7
	}
	return e
}

func (e *Engine) lock(userID int64) func() {
	v, _ := e.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// turn is the handling of one event
type turn struct {
	*Engine
	ctx   context.Context
	id    int64
	user  *models.User
	st    session.State
	dirty bool
}

func (t *turn) setState(st session.State) {
	t.st = st
	t.dirty = true
}

func (t *turn) log() *zap.Logger {
	return t.logger.With(zap.Int64("telegram_id", t.id))
}

// Handle processes one event and returns the messages to send. On error the
// returned replies already contain an apology and the session is left as it was.
func (e *Engine) Handle(ctx context.Context, userID int64, ev Event) ([]Reply, error) {
	unlock := e.lock(userID)
	defer unlock()

	user, err := e.users.GetOrCreate(ctx, userID, ev.Username, ev.FirstName)
	if err != nil {
		return []Reply{{Text: msgStorage}}, fmt.Errorf("failed to load user: %w", err)
	}

	// progress lives in the user row, a lost session only restarts the lesson
	st, err := e.sessions.Get(ctx, userID)
	if err != nil {
		e.logger.Warn("failed to load session, starting idle", zap.Int64("telegram_id", userID), zap.Error(err))
		if err := e.sessions.Clear(ctx, userID); err != nil {
			e.logger.Warn("failed to drop broken session", zap.Int64("telegram_id", userID), zap.Error(err))
		}
		st = session.Idle()
	}

	t := &turn{Engine: e, ctx: ctx, id: userID, user: user, st: st}
	replies, err := t.dispatch(ev)
	if err != nil {
		return []Reply{{Text: msgStorage}}, err
	}

	if t.dirty {
		if err := e.sessions.Put(ctx, userID, t.st); err != nil {
			return append(replies, Reply{Text: msgStorage}), err
		}
	}
	return replies, nil
}

func (t *turn) dispatch(ev Event) ([]Reply, error) {
	switch ev.Kind {
	case EventStart:
		return t.start()
	case EventMenu:
		t.setState(session.Idle())
		return t.menu("🏠 Главное меню")
	case EventProfile:
		return t.profile()
	case EventLearn, EventNextLesson:
		return t.learn(true)
	case EventPath:
		return t.choosePath(ev.Path)
	case EventTrack:
		return t.moveToTrack(content.Track(ev.Track))
	case EventReview:
		return t.startReview(false)
	case EventPlacement:
		return t.startPlacement()
	case EventVoice:
		return t.voice(ev.AudioPath)
	}

	switch t.st.Mode {
	case session.ModeWelcome:
		if ev.Kind == EventContinue {
			return t.openLesson(content.Track(t.st.Track), t.st.Lesson, false)
		}
	case session.ModeTheory:
		switch ev.Kind {
		case EventToCards:
			return t.withLesson(t.startCards)
		case EventFinish:
			return t.abort()
		}
	case session.ModeCards:
		switch ev.Kind {
		case EventNext:
			return t.withLesson(func(l *content.Lesson) ([]Reply, error) {
				return t.nextCard(l, ev.Card)
			})
		case EventFinish:
			return t.abort()
		}
	case session.ModeExercises:
		switch ev.Kind {
		case EventChoice:
			return t.withLesson(func(l *content.Lesson) ([]Reply, error) {
				return t.answerChoice(l, ev.Exercise, ev.Option)
			})
		case EventText:
			return t.withLesson(func(l *content.Lesson) ([]Reply, error) {
				return t.answerText(l, ev.Text)
			})
		case EventSkip:
			return t.withLesson(t.skip)
		case EventFinish:
			return t.abort()
		}
	case session.ModeCompleting:
		if ev.Kind == EventContinue {
			return t.withLesson(t.completeLesson)
		}
	case session.ModeReview:
		switch ev.Kind {
		case EventText:
			return t.answerReview(ev.Text)
		case EventReviewFinish:
			return t.finishReview()
		}
	case session.ModeQuiz:
		if ev.Kind == EventPlacementAnswer {
			return t.answerPlacement(ev.Question, ev.Option)
		}
	case session.ModeIdle:
		if ev.Kind == EventText {
			return []Reply{{Text: msgIdleText, Buttons: [][]Button{
				{{Text: "📚 Учиться", Data: DataLearn}},
				{{Text: "🏠 Меню", Data: DataMenu}},
			}}}, nil
		}
	}

	return []Reply{{Text: msgStale}}, nil
}

// withLesson loads the lesson the session points at. Missing content resets
// the session and ends the track.
func (t *turn) withLesson(fn func(*content.Lesson) ([]Reply, error)) ([]Reply, error) {
	track := content.Track(t.st.Track)
	l, err := t.content.Lesson(track, t.st.Lesson)
	if err != nil {
		if isNotFound(err) {
			t.log().Warn("lesson disappeared, resetting session",
				zap.String("track", t.st.Track), zap.Int("lesson", t.st.Lesson))
			t.setState(session.Idle())
			return t.trackComplete(track), nil
		}
		return nil, err
	}
	return fn(l)
}

// rewards evaluates achievements on a fresh user snapshot. Failures are logged only.
func (t *turn) rewards() []Reply {
	if t.achievements == nil {
		return nil
	}
	u, err := t.users.Get(t.ctx, t.id)
	if err != nil {
		t.log().Warn("failed to reload user", zap.Error(err))
		return nil
	}
	t.user = u

	unlocked, err := t.achievements.Evaluate(t.ctx, u)
	if err != nil {
		t.log().Warn("failed to evaluate achievements", zap.Error(err))
	}
	var replies []Reply
	for _, a := range unlocked {
		replies = append(replies,
			Reply{Dice: true},
			Reply{Text: fmt.Sprintf("🏆 Новое достижение: %s\n%s", a.Title, a.Description)})
	}
	return replies
}

// bestEffort logs a failed secondary write
func (t *turn) bestEffort(what string, err error) {
	if err != nil {
		t.log().Warn("failed to "+what, zap.Error(err))
	}
}
