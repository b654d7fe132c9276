package content

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"a1_lessons/a1_01.json": {Data: []byte(`{
			"title": "Приветствия",
			"theory": "Hola = привет",
			"cards": [{"spanish": "hola", "russian": "привет"}],
			"exercises": [
				{"type": "choice", "question": "Привет?", "options": ["adiós", "hola"], "correct_index": 1},
				{"type": "fill_text", "question": "___ días (Добрый день)", "answer": "Buenos"},
				{"type": "matching", "question": "unsupported"}
			]
		}`)},
		"a1_lessons/а1_02.json": {Data: []byte(`{"title": "Кириллица", "cards": []}`)},
		"a1_lessons/notes.txt":  {Data: []byte("ignored")},
		"a1_lessons/b1_09.json": {Data: []byte(`{"title": "wrong prefix"}`)},
		"a1_lessons/a1_04.json": {Data: []byte(`{broken`)},
		"zero_lessons/zero_01.json": {Data: []byte(`{
			"title": "Алфавит",
			"theory": "dropped",
			"cards": [
				{"spanish": "b", "russian": "бэ", "order": 2},
				{"spanish": "a", "russian": "а", "order": 1}
			],
			"quiz": {"questions": [
				{"question": "Как читается «a»?", "options": ["а", "о"], "correct_index": 0}
			]}
		}`)},
	}
}

func TestLoaderLesson(t *testing.T) {
	loader := NewLoader(testFS())

	lesson, err := loader.Lesson(TrackA1, 1)
	require.NoError(t, err)
	assert.Equal(t, "a1_01", lesson.ID)
	assert.Equal(t, 1, lesson.Number)
	assert.Equal(t, "Hola = привет", lesson.Theory)
	require.Len(t, lesson.Exercises, 2, "unsupported exercise types are dropped")
	assert.Equal(t, "hola", lesson.Exercises[0].CorrectOption())
	assert.Equal(t, "a1_01_choice_0", lesson.ItemID(0))
	assert.Equal(t, "a1_01_fill_1", lesson.ItemID(1))

	again, err := loader.Lesson(TrackA1, 1)
	require.NoError(t, err)
	assert.Same(t, lesson, again)

	cyr, err := loader.Lesson(TrackA1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Кириллица", cyr.Title)
}

func TestLoaderMissingAndBroken(t *testing.T) {
	loader := NewLoader(testFS())

	_, err := loader.Lesson(TrackA1, 3)
	assert.ErrorIs(t, err, ErrLessonNotFound)

	_, err = loader.Lesson(TrackB1, 1)
	assert.ErrorIs(t, err, ErrLessonNotFound)

	_, err = loader.Lesson(TrackA1, 4)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLessonNotFound))

	_, err = loader.Lesson(Track("C1"), 1)
	assert.Error(t, err)
}

func TestLoaderTrackLength(t *testing.T) {
	loader := NewLoader(testFS())

	assert.Equal(t, 3, loader.TrackLength(TrackA1))
	assert.Equal(t, 1, loader.TrackLength(TrackZero))
	assert.Equal(t, 0, loader.TrackLength(TrackA2))
	assert.True(t, loader.LessonExists(TrackA1, 2))
	assert.False(t, loader.LessonExists(TrackA1, 3))
}

func TestLoaderZeroQuizBecomesExercises(t *testing.T) {
	loader := NewLoader(testFS())

	lesson, err := loader.Lesson(TrackZero, 1)
	require.NoError(t, err)
	assert.Empty(t, lesson.Theory)
	assert.Equal(t, "a", lesson.Cards[0].Spanish)
	assert.Equal(t, "b", lesson.Cards[1].Spanish)

	require.Len(t, lesson.Exercises, 1)
	ex := lesson.Exercises[0]
	assert.True(t, ex.FromQuiz)
	assert.Equal(t, ExerciseChoice, ex.Type)
	assert.Equal(t, "zero_01_quiz_0", lesson.ItemID(0))
}

func TestParseTrack(t *testing.T) {
	track, ok := ParseTrack("a2")
	assert.True(t, ok)
	assert.Equal(t, TrackA2, track)

	_, ok = ParseTrack("c1")
	assert.False(t, ok)

	desc, ok := Describe(TrackZero)
	require.True(t, ok)
	assert.Equal(t, TrackA1, desc.Next)
	assert.False(t, desc.Allows(ExerciseVoice))
}
