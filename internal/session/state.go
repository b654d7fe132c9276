package session

// Mode is the single active flow of a user; it decides which events are accepted
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeWelcome   Mode = "welcome"
	ModeTheory    Mode = "theory"
	ModeCards     Mode = "cards"
	ModeExercises Mode = "exercises"
	// ModeCompleting is a finished lesson whose progress could not be saved yet
	ModeCompleting Mode = "completing"
	ModeReview     Mode = "review"
	ModeQuiz       Mode = "quiz"
)

// State is the ephemeral conversation state of one user
type State struct {
	Mode Mode `json:"mode"`

	// Lesson position, valid in welcome, theory, cards, exercises and completing
	Track         string `json:"track,omitempty"`
	Lesson        int    `json:"lesson,omitempty"`
	CardIndex     int    `json:"card_index,omitempty"`
	ExerciseIndex int    `json:"exercise_index,omitempty"`

	Review *Review `json:"review,omitempty"`
	Quiz   *Quiz   `json:"quiz,omitempty"`
}

// Review is a batch of due items being worked through
type Review struct {
	ItemIDs  []int64 `json:"item_ids"`
	Index    int     `json:"index"`
	Reviewed int     `json:"reviewed"`
	// ThenLesson starts the next lesson when the review ends
	ThenLesson bool `json:"then_lesson,omitempty"`
}

// Quiz is the placement test in progress; answers are keyed by question index
type Quiz struct {
	Index   int         `json:"index"`
	Answers map[int]int `json:"answers"`
}

// Idle returns the empty state
func Idle() State {
	return State{Mode: ModeIdle}
}

// AtLesson returns a state positioned at the start of a lesson in the given mode
func AtLesson(mode Mode, track string, lesson int) State {
	return State{Mode: mode, Track: track, Lesson: lesson}
}
