package models

import "time"

// ItemType classifies what a review item asks the user to recall
type ItemType string

const (
	ItemTypeWord     ItemType = "word"
	ItemTypePhrase   ItemType = "phrase"
	ItemTypeExercise ItemType = "exercise"
)

// ReviewItem is a previously missed word, phrase or exercise scheduled for spaced review
type ReviewItem struct {
	ID           int64     `json:"id" db:"id"`
	TelegramID   int64     `json:"telegram_id" db:"telegram_id"`
	ItemID       string    `json:"item_id" db:"item_id"`
	ItemType     ItemType  `json:"item_type" db:"item_type"`
	Content      string    `json:"content" db:"content"`
	Answer       string    `json:"answer" db:"answer"`
	Interval     int       `json:"interval" db:"interval_days"` // Current ladder step in days, 0 until first review
	NextReviewAt time.Time `json:"next_review_at" db:"next_review_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsDue reports whether the item should be shown at the given moment
func (r *ReviewItem) IsDue(now time.Time) bool {
	return !r.NextReviewAt.After(now)
}

// DueCount is the number of due review items of one user
type DueCount struct {
	TelegramID int64 `db:"telegram_id"`
	Count      int   `db:"cnt"`
}
