package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// userQueue handles the updates of one user strictly in arrival order, while
// different users are served in parallel
type userQueue struct {
	mu      sync.Mutex
	pending map[int64][]tgbotapi.Update // a key is present while its worker runs
	wg      sync.WaitGroup
	handle  func(tgbotapi.Update)
}

func newUserQueue(handle func(tgbotapi.Update)) *userQueue {
	return &userQueue{pending: map[int64][]tgbotapi.Update{}, handle: handle}
}

func (q *userQueue) push(userID int64, update tgbotapi.Update) {
	q.mu.Lock()
	defer q.mu.Unlock()

	backlog, running := q.pending[userID]
	q.pending[userID] = append(backlog, update)
	if !running {
		q.wg.Add(1)
		go q.drain(userID)
	}
}

func (q *userQueue) drain(userID int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		backlog := q.pending[userID]
		if len(backlog) == 0 {
			delete(q.pending, userID)
			q.mu.Unlock()
			return
		}
		next := backlog[0]
		q.pending[userID] = backlog[1:]
		q.mu.Unlock()

		q.handle(next)
	}
}

// wait blocks until every pushed update has been handled
func (q *userQueue) wait() {
	q.wg.Wait()
}

// updateUserID returns the sender of an update, 0 when there is none
func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	}
	return 0
}
