package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the database (sqlite3 or postgres) and creates missing tables
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// dialect holds the column types that differ between drivers
type dialect struct {
	id        string
	timestamp string
}

func dialectFor(driver string) dialect {
	if driver == "postgres" {
		return dialect{id: "BIGSERIAL PRIMARY KEY", timestamp: "TIMESTAMPTZ"}
	}
	return dialect{id: "INTEGER PRIMARY KEY AUTOINCREMENT", timestamp: "TIMESTAMP"}
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	d := dialectFor(db.DriverName())

	tables := []struct {
		name string
		ddl  string
	}{
		{"users", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS users (
				id %[1]s,
				telegram_id BIGINT UNIQUE NOT NULL,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				level TEXT NOT NULL DEFAULT '',
				last_level_test_at %[2]s NULL,
				level_test_count INTEGER NOT NULL DEFAULT 0,
				zero_progress INTEGER NOT NULL DEFAULT 0,
				a1_progress INTEGER NOT NULL DEFAULT 0,
				a2_progress INTEGER NOT NULL DEFAULT 0,
				b1_progress INTEGER NOT NULL DEFAULT 0,
				streak INTEGER NOT NULL DEFAULT 0,
				last_activity_date %[2]s NULL,
				xp INTEGER NOT NULL DEFAULT 0,
				words_learned INTEGER NOT NULL DEFAULT 0,
				voice_practice_count INTEGER NOT NULL DEFAULT 0,
				created_at %[2]s NOT NULL
			)`, d.id, d.timestamp)},
		{"review_items", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS review_items (
				id %[1]s,
				telegram_id BIGINT NOT NULL,
				item_id TEXT NOT NULL,
				item_type TEXT NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				answer TEXT NOT NULL DEFAULT '',
				interval_days INTEGER NOT NULL DEFAULT 0,
				next_review_at %[2]s NOT NULL,
				created_at %[2]s NOT NULL,
				updated_at %[2]s NOT NULL
			)`, d.id, d.timestamp)},
		{"review_items index", `
			CREATE INDEX IF NOT EXISTS idx_review_items_due
			ON review_items (telegram_id, next_review_at)`},
		{"achievements", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS achievements (
				id %[1]s,
				telegram_id BIGINT NOT NULL,
				code TEXT NOT NULL,
				created_at %[2]s NOT NULL,
				UNIQUE(telegram_id, code)
			)`, d.id, d.timestamp)},
		{"sessions", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS sessions (
				telegram_id BIGINT PRIMARY KEY,
				data TEXT NOT NULL,
				updated_at %s NOT NULL
			)`, d.timestamp)},
	}

	for _, t := range tables {
		if _, err := db.Exec(t.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", t.name, err)
		}
	}
	return nil
}
