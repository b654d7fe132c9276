package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/espbot/internal/database"
)

// Repository persists serialized sessions
type Repository interface {
	Load(ctx context.Context, telegramID int64) ([]byte, error)
	Save(ctx context.Context, telegramID int64, data []byte, at time.Time) error
	Delete(ctx context.Context, telegramID int64) error
}

// Store keeps session state outside the process so a flow survives restarts
// and arbitrary pauses between messages
type Store struct {
	repo Repository
	now  func() time.Time
}

// NewStore creates a session store
func NewStore(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Get returns the user's state; users without a session are idle
func (s *Store) Get(ctx context.Context, userID int64) (State, error) {
	data, err := s.repo.Load(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return Idle(), nil
	}
	if err != nil {
		return State{}, err
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to decode session: %w", err)
	}
	if st.Mode == "" {
		st.Mode = ModeIdle
	}
	return st, nil
}

// Put stores the state; an idle state removes the session
func (s *Store) Put(ctx context.Context, userID int64, st State) error {
	if st.Mode == ModeIdle || st.Mode == "" {
		return s.repo.Delete(ctx, userID)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.repo.Save(ctx, userID, data, s.now())
}

// Clear drops the session
func (s *Store) Clear(ctx context.Context, userID int64) error {
	return s.repo.Delete(ctx, userID)
}
