package content

import "strings"

// Track is one curriculum tier with its own ordered lesson sequence
type Track string

const (
	TrackZero Track = "ZERO"
	TrackA1   Track = "A1"
	TrackA2   Track = "A2"
	TrackB1   Track = "B1"
)

// Descriptor captures how the tracks differ so one lesson flow can serve all of them
type Descriptor struct {
	Track Track
	Name  string
	// Directory under the content root holding the lesson files
	Dir string
	// File name prefixes, e.g. a1_03.json; A1 files also exist with a Cyrillic "а"
	Prefixes []string
	// Theory is shown before the cards
	HasTheory bool
	// Quiz questions are turned into choice exercises answered by option text
	QuizAsExercises bool
	ExerciseTypes   []ExerciseType
	// Next is the track offered when this one is finished
	Next Track
}

var descriptors = map[Track]Descriptor{
	TrackZero: {
		Track:           TrackZero,
		Name:            "Испанский с нуля",
		Dir:             "zero_lessons",
		Prefixes:        []string{"zero"},
		QuizAsExercises: true,
		ExerciseTypes:   []ExerciseType{ExerciseChoice},
		Next:            TrackA1,
	},
	TrackA1: {
		Track:         TrackA1,
		Name:          "Уровень A1",
		Dir:           "a1_lessons",
		Prefixes:      []string{"a1", "а1"},
		HasTheory:     true,
		ExerciseTypes: []ExerciseType{ExerciseChoice, ExerciseFillText, ExerciseDialogue, ExerciseVoice},
		Next:          TrackA2,
	},
	TrackA2: {
		Track:         TrackA2,
		Name:          "Уровень A2",
		Dir:           "a2_lessons",
		Prefixes:      []string{"a2"},
		HasTheory:     true,
		ExerciseTypes: []ExerciseType{ExerciseChoice, ExerciseFillText, ExerciseDialogue, ExerciseVoice},
		Next:          TrackB1,
	},
	TrackB1: {
		Track:         TrackB1,
		Name:          "Уровень B1",
		Dir:           "b1_lessons",
		Prefixes:      []string{"b1"},
		HasTheory:     true,
		ExerciseTypes: []ExerciseType{ExerciseChoice, ExerciseFillText, ExerciseDialogue, ExerciseVoice},
	},
}

// Describe returns the descriptor of a track
func Describe(t Track) (Descriptor, bool) {
	d, ok := descriptors[t]
	return d, ok
}

// ParseTrack accepts codes like "a1" or "ZERO"
func ParseTrack(s string) (Track, bool) {
	t := Track(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := descriptors[t]
	return t, ok
}

// Allows reports whether the exercise type is legal on the track
func (d Descriptor) Allows(t ExerciseType) bool {
	for _, allowed := range d.ExerciseTypes {
		if allowed == t {
			return true
		}
	}
	return false
}
