package models

import "time"

// User represents a Telegram user learning with the bot
type User struct {
	ID                 int64      `json:"id" db:"id"`
	TelegramID         int64      `json:"telegram_id" db:"telegram_id"`
	Username           string     `json:"username" db:"username"`
	FirstName          string     `json:"first_name" db:"first_name"`
	Level              string     `json:"level" db:"level"` // Empty until the user picks a path or takes the placement test
	LastLevelTestAt    *time.Time `json:"last_level_test_at" db:"last_level_test_at"`
	LevelTestCount     int        `json:"level_test_count" db:"level_test_count"`
	ZeroProgress       int        `json:"zero_progress" db:"zero_progress"`
	A1Progress         int        `json:"a1_progress" db:"a1_progress"`
	A2Progress         int        `json:"a2_progress" db:"a2_progress"`
	B1Progress         int        `json:"b1_progress" db:"b1_progress"`
	Streak             int        `json:"streak" db:"streak"`
	LastActivityDate   *time.Time `json:"last_activity_date" db:"last_activity_date"`
	XP                 int        `json:"xp" db:"xp"`
	WordsLearned       int        `json:"words_learned" db:"words_learned"`
	VoicePracticeCount int        `json:"voice_practice_count" db:"voice_practice_count"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// Progress returns the number of completed lessons in a track (ZERO, A1, A2, B1)
func (u *User) Progress(track string) int {
	switch track {
	case "ZERO":
		return u.ZeroProgress
	case "A1":
		return u.A1Progress
	case "A2":
		return u.A2Progress
	case "B1":
		return u.B1Progress
	}
	return 0
}

// TotalLessons sums completed lessons over all tracks
func (u *User) TotalLessons() int {
	return u.ZeroProgress + u.A1Progress + u.A2Progress + u.B1Progress
}

// HasTakenLevelTest reports whether the placement quiz was ever finished
func (u *User) HasTakenLevelTest() bool {
	return u.LastLevelTestAt != nil
}

// NextStreak returns the streak after activity at now: unchanged on the same
// day, +1 when the previous activity was yesterday, otherwise restarted at 1
func (u *User) NextStreak(now time.Time) int {
	if u.LastActivityDate == nil {
		return 1
	}
	today := truncateDay(now)
	last := truncateDay(*u.LastActivityDate)
	switch {
	case last.Equal(today):
		if u.Streak == 0 {
			return 1
		}
		return u.Streak
	case last.AddDate(0, 0, 1).Equal(today):
		return u.Streak + 1
	}
	return 1
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
