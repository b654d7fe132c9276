package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrLessonNotFound is returned when a track has no file for the lesson number
var ErrLessonNotFound = errors.New("lesson not found")

var lessonFile = regexp.MustCompile(`^(.+)_(\d+)\.json$`)

// Loader resolves (track, lesson number) to lesson documents. Each track
// directory is scanned once and parsed lessons are cached; the loader is safe
// for concurrent use.
type Loader struct {
	fsys fs.FS

	mu      sync.RWMutex
	indexes map[Track]map[int]string // lesson number -> file path
	lessons map[string]*Lesson
}

// NewLoader reads lessons from fsys, usually os.DirFS(contentDir)
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{
		fsys:    fsys,
		indexes: make(map[Track]map[int]string),
		lessons: make(map[string]*Lesson),
	}
}

// Lesson returns lesson n of the track or ErrLessonNotFound
func (l *Loader) Lesson(track Track, n int) (*Lesson, error) {
	index, err := l.index(track)
	if err != nil {
		return nil, err
	}
	file, ok := index[n]
	if !ok {
		return nil, fmt.Errorf("%s lesson %d: %w", track, n, ErrLessonNotFound)
	}

	l.mu.RLock()
	lesson, cached := l.lessons[file]
	l.mu.RUnlock()
	if cached {
		return lesson, nil
	}

	lesson, err = l.parse(track, n, file)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.lessons[file]; ok {
		return existing, nil
	}
	l.lessons[file] = lesson
	return lesson, nil
}

// LessonExists reports whether the track has a file for lesson n
func (l *Loader) LessonExists(track Track, n int) bool {
	index, err := l.index(track)
	if err != nil {
		return false
	}
	_, ok := index[n]
	return ok
}

// TrackLength returns the number of lessons found for the track
func (l *Loader) TrackLength(track Track) int {
	index, err := l.index(track)
	if err != nil {
		return 0
	}
	return len(index)
}

func (l *Loader) index(track Track) (map[int]string, error) {
	l.mu.RLock()
	index, ok := l.indexes[track]
	l.mu.RUnlock()
	if ok {
		return index, nil
	}

	desc, ok := Describe(track)
	if !ok {
		return nil, fmt.Errorf("unknown track %q", track)
	}

	index = make(map[int]string)
	entries, err := fs.ReadDir(l.fsys, desc.Dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to scan %s: %w", desc.Dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := lessonFile.FindStringSubmatch(entry.Name())
		if m == nil || !hasPrefix(desc, m[1]) {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n <= 0 {
			continue
		}
		if _, dup := index[n]; !dup {
			index[n] = path.Join(desc.Dir, entry.Name())
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.indexes[track]; ok {
		return existing, nil
	}
	l.indexes[track] = index
	return index, nil
}

func hasPrefix(desc Descriptor, prefix string) bool {
	for _, p := range desc.Prefixes {
		if strings.EqualFold(p, prefix) {
			return true
		}
	}
	return false
}

func (l *Loader) parse(track Track, n int, file string) (*Lesson, error) {
	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	var lesson Lesson
	if err := json.Unmarshal(data, &lesson); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}

	desc, _ := Describe(track)
	lesson.ID = strings.TrimSuffix(path.Base(file), ".json")
	lesson.Track = track
	lesson.Number = n

	sort.SliceStable(lesson.Cards, func(i, j int) bool {
		return lesson.Cards[i].Order < lesson.Cards[j].Order
	})

	if !desc.HasTheory {
		lesson.Theory = ""
	}

	exercises := lesson.Exercises[:0]
	for _, ex := range lesson.Exercises {
		if desc.Allows(ex.Type) {
			exercises = append(exercises, ex)
		}
	}
	lesson.Exercises = exercises

	if desc.QuizAsExercises && lesson.Quiz != nil {
		for _, q := range lesson.Quiz.Questions {
			lesson.Exercises = append(lesson.Exercises, Exercise{
				Type:         ExerciseChoice,
				Question:     q.Question,
				Options:      q.Options,
				CorrectIndex: q.CorrectIndex,
				FromQuiz:     true,
			})
		}
	}
	return &lesson, nil
}
