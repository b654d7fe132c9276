package excel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/example/espbot/internal/content"
	"github.com/xuri/excelize/v2"
)

// Sheet names of a lesson workbook
const (
	SheetLessons   = "Lessons"
	SheetCards     = "Cards"
	SheetExercises = "Exercises"
	SheetQuiz      = "Quiz"
)

// Lessons: number | title | description | theory | success message
// Cards: lesson | spanish | russian | example | transcription | note
// Exercises: lesson | type | question | options (a|b|c) | correct index | answer |
//            expected | task_ru | review content | review answer
// Quiz: lesson | question | options | correct index

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath string        // Path to the xlsx workbook
	OutDir   string        // Content root; files go to the track's directory under it
	Track    content.Track // Track the lessons belong to
	StartRow int           // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		OutDir:   "content",
		Track:    content.TrackA1,
		StartRow: 2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportLessons converts a workbook into lesson files
func ImportLessons(config ImportConfig) (*ImportResult, error) {
	desc, ok := content.Describe(config.Track)
	if !ok {
		return nil, fmt.Errorf("unknown track %q", config.Track)
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	result := &ImportResult{Errors: make([]string, 0)}
	lessons := make(map[int]*content.Lesson)

	rows, err := sheetRows(f, SheetLessons, config.StartRow, true)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		result.TotalProcessed++
		n, err := lessonNumber(r.cell(0))
		if err != nil {
			result.addError(SheetLessons, r.num, err)
			continue
		}
		if _, dup := lessons[n]; dup {
			result.addError(SheetLessons, r.num, fmt.Errorf("lesson %d is listed twice", n))
			continue
		}
		if r.cell(1) == "" {
			result.addError(SheetLessons, r.num, errors.New("title cannot be empty"))
			continue
		}
		lessons[n] = &content.Lesson{
			Title:          r.cell(1),
			Description:    r.cell(2),
			Theory:         r.cell(3),
			SuccessMessage: r.cell(4),
		}
	}

	rows, err = sheetRows(f, SheetCards, config.StartRow, false)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		result.TotalProcessed++
		l, err := owner(lessons, r.cell(0))
		if err != nil {
			result.addError(SheetCards, r.num, err)
			continue
		}
		if r.cell(1) == "" {
			result.addError(SheetCards, r.num, errors.New("spanish cannot be empty"))
			continue
		}
		l.Cards = append(l.Cards, content.Card{
			Spanish:       r.cell(1),
			Russian:       r.cell(2),
			Example:       r.cell(3),
			Transcription: r.cell(4),
			Note:          r.cell(5),
			Order:         len(l.Cards) + 1,
		})
	}

	rows, err = sheetRows(f, SheetExercises, config.StartRow, false)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		result.TotalProcessed++
		l, err := owner(lessons, r.cell(0))
		if err != nil {
			result.addError(SheetExercises, r.num, err)
			continue
		}
		ex, err := parseExercise(r)
		if err != nil {
			result.addError(SheetExercises, r.num, err)
			continue
		}
		if !desc.Allows(ex.Type) {
			result.Skipped++
			continue
		}
		l.Exercises = append(l.Exercises, ex)
	}

	rows, err = sheetRows(f, SheetQuiz, config.StartRow, false)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		result.TotalProcessed++
		l, err := owner(lessons, r.cell(0))
		if err != nil {
			result.addError(SheetQuiz, r.num, err)
			continue
		}
		options := splitOptions(r.cell(2))
		correct, err := optionIndex(r.cell(3), len(options))
		if err != nil || r.cell(1) == "" {
			result.addError(SheetQuiz, r.num, fmt.Errorf("invalid quiz question: %v", err))
			continue
		}
		if l.Quiz == nil {
			l.Quiz = &content.Quiz{}
		}
		l.Quiz.Questions = append(l.Quiz.Questions, content.QuizQuestion{
			Question:     r.cell(1),
			Options:      options,
			CorrectIndex: correct,
		})
	}

	dir := filepath.Join(config.OutDir, desc.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	numbers := make([]int, 0, len(lessons))
	for n := range lessons {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		path := filepath.Join(dir, fmt.Sprintf("%s_%02d.json", desc.Prefixes[0], n))
		existed, err := writeLesson(path, lessons[n])
		if err != nil {
			return result, err
		}
		if existed {
			result.Updated++
		} else {
			result.Created++
		}
	}
	return result, nil
}

func (r *ImportResult) addError(sheet string, row int, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s row %d: %v", sheet, row, err))
}

type row struct {
	num    int
	values []string
}

func (r row) cell(i int) string {
	if i < len(r.values) {
		return strings.TrimSpace(r.values[i])
	}
	return ""
}

// sheetRows returns the non-empty rows from startRow on; a missing optional sheet has none
func sheetRows(f *excelize.File, sheet string, startRow int, required bool) ([]row, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		if required {
			return nil, fmt.Errorf("sheet %q not found", sheet)
		}
		return nil, nil
	}

	values, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows of %s: %w", sheet, err)
	}

	var rows []row
	for i, v := range values {
		if i < startRow-1 || strings.TrimSpace(strings.Join(v, "")) == "" {
			continue
		}
		rows = append(rows, row{num: i + 1, values: v})
	}
	return rows, nil
}

func lessonNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid lesson number %q", s)
	}
	return n, nil
}

func owner(lessons map[int]*content.Lesson, s string) (*content.Lesson, error) {
	n, err := lessonNumber(s)
	if err != nil {
		return nil, err
	}
	l, ok := lessons[n]
	if !ok {
		return nil, fmt.Errorf("lesson %d is not in the %s sheet", n, SheetLessons)
	}
	return l, nil
}

func parseExercise(r row) (content.Exercise, error) {
	ex := content.Exercise{
		Type:          content.ExerciseType(strings.ToLower(r.cell(1))),
		Answer:        r.cell(5),
		Expected:      r.cell(6),
		TaskRu:        r.cell(7),
		ReviewContent: r.cell(8),
		ReviewAnswer:  r.cell(9),
	}

	switch ex.Type {
	case content.ExerciseChoice:
		ex.Question = r.cell(2)
		ex.Options = splitOptions(r.cell(3))
		correct, err := optionIndex(r.cell(4), len(ex.Options))
		if err != nil {
			return ex, err
		}
		ex.CorrectIndex = correct
	case content.ExerciseFillText:
		ex.Question = r.cell(2)
		if ex.Answer == "" {
			return ex, errors.New("fill_text needs an answer")
		}
	case content.ExerciseDialogue:
		ex.Prompt = r.cell(2)
	case content.ExerciseVoice:
		ex.Question = r.cell(2)
		if ex.Expected == "" {
			return ex, errors.New("voice needs an expected phrase")
		}
	default:
		return ex, fmt.Errorf("unknown exercise type %q", r.cell(1))
	}

	if ex.Text() == "" && ex.Type != content.ExerciseVoice {
		return ex, errors.New("question cannot be empty")
	}
	return ex, nil
}

func splitOptions(s string) []string {
	var options []string
	for _, o := range strings.Split(s, "|") {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	return options
}

func optionIndex(s string, count int) (int, error) {
	if count < 2 {
		return 0, errors.New("at least two options are required")
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 || i >= count {
		return 0, fmt.Errorf("correct index %q out of range", s)
	}
	return i, nil
}

func writeLesson(path string, l *content.Lesson) (bool, error) {
	_, err := os.Stat(path)
	existed := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return existed, nil
}
