package models

// Statistics is the bot-wide overview shown to admins
type Statistics struct {
	Users            int `json:"users" db:"users"`
	ActiveToday      int `json:"active_today" db:"active_today"`
	LessonsCompleted int `json:"lessons_completed" db:"lessons_completed"`
	LevelTests       int `json:"level_tests" db:"level_tests"`
	ReviewItems      int `json:"review_items" db:"review_items"`
	DueItems         int `json:"due_items" db:"due_items"`
	Achievements     int `json:"achievements" db:"achievements"`
}
