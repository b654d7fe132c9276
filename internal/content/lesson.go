package content

import "fmt"

// ExerciseType is the kind of an exercise; it decides how the answer is judged
type ExerciseType string

const (
	ExerciseChoice   ExerciseType = "choice"
	ExerciseFillText ExerciseType = "fill_text"
	ExerciseDialogue ExerciseType = "dialogue"
	ExerciseVoice    ExerciseType = "voice"
)

// Card is a single vocabulary entry shown before the exercises
type Card struct {
	Spanish       string `json:"spanish"`
	Russian       string `json:"russian,omitempty"`
	Translation   string `json:"translation,omitempty"`
	Transcription string `json:"transcription,omitempty"`
	Example       string `json:"example,omitempty"`
	Note          string `json:"note,omitempty"`
	Order         int    `json:"order,omitempty"`
}

// Meaning returns the Russian side of the card
func (c Card) Meaning() string {
	if c.Russian != "" {
		return c.Russian
	}
	return c.Translation
}

// Exercise is one typed task of a lesson
type Exercise struct {
	Type          ExerciseType `json:"type"`
	Question      string       `json:"question,omitempty"`
	Prompt        string       `json:"prompt,omitempty"`
	TaskRu        string       `json:"task_ru,omitempty"`
	Options       []string     `json:"options,omitempty"`
	CorrectIndex  int          `json:"correct_index"`
	Answer        string       `json:"answer,omitempty"`
	Expected      string       `json:"expected,omitempty"`
	ReviewContent string       `json:"review_content,omitempty"`
	ReviewAnswer  string       `json:"review_answer,omitempty"`

	// FromQuiz marks choice exercises built from a lesson quiz; they may be
	// answered by typing the option text
	FromQuiz bool `json:"-"`
}

// Text is what the user is asked
func (e Exercise) Text() string {
	if e.Question != "" {
		return e.Question
	}
	return e.Prompt
}

// CorrectOption returns the text of the right option of a choice exercise
func (e Exercise) CorrectOption() string {
	if e.CorrectIndex < 0 || e.CorrectIndex >= len(e.Options) {
		return ""
	}
	return e.Options[e.CorrectIndex]
}

// Kind is the short exercise tag used in review item keys
func (e Exercise) Kind() string {
	switch {
	case e.FromQuiz:
		return "quiz"
	case e.Type == ExerciseFillText:
		return "fill"
	}
	return string(e.Type)
}

// QuizQuestion is a multiple choice question of a ZERO lesson quiz
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Quiz closes a ZERO lesson
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

// Lesson is the content of one lesson. Loaded lessons are shared between
// users and must not be modified.
type Lesson struct {
	ID     string `json:"-"` // file name without extension, e.g. a1_03
	Track  Track  `json:"-"`
	Number int    `json:"-"`

	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Theory         string     `json:"theory,omitempty"`
	SuccessMessage string     `json:"success_message,omitempty"`
	Cards          []Card     `json:"cards"`
	Exercises      []Exercise `json:"exercises,omitempty"`
	Quiz           *Quiz      `json:"quiz,omitempty"`
}

// ItemID builds the review item key of an exercise
func (l *Lesson) ItemID(exerciseIndex int) string {
	kind := "ex"
	if exerciseIndex >= 0 && exerciseIndex < len(l.Exercises) {
		kind = l.Exercises[exerciseIndex].Kind()
	}
	return fmt.Sprintf("%s_%s_%d", l.ID, kind, exerciseIndex)
}

// CardBySpanish finds a card by its Spanish side, ignoring case and punctuation
func (l *Lesson) CardBySpanish(text string) (Card, bool) {
	key := matchKey(text)
	if key == "" {
		return Card{}, false
	}
	for _, c := range l.Cards {
		if matchKey(c.Spanish) == key {
			return c, true
		}
	}
	return Card{}, false
}
