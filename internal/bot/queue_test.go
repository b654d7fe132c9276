package bot

import (
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageFrom(userID int64, updateID int) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		Message:  &tgbotapi.Message{From: &tgbotapi.User{ID: userID}},
	}
}

func TestUserQueueKeepsOrderPerUser(t *testing.T) {
	var mu sync.Mutex
	handled := map[int64][]int{}

	q := newUserQueue(func(u tgbotapi.Update) {
		// the first message of each user is slow
		if u.UpdateID < 2 {
			time.Sleep(20 * time.Millisecond)
		}
		id := updateUserID(u)
		mu.Lock()
		handled[id] = append(handled[id], u.UpdateID)
		mu.Unlock()
	})

	var want1, want2 []int
	for i := 0; i < 40; i++ {
		userID := int64(1 + i%2)
		q.push(userID, messageFrom(userID, i))
		if userID == 1 {
			want1 = append(want1, i)
		} else {
			want2 = append(want2, i)
		}
	}
	q.wait()

	assert.Equal(t, want1, handled[1])
	assert.Equal(t, want2, handled[2])
	assert.Empty(t, q.pending)
}

func TestUserQueueServesUsersInParallel(t *testing.T) {
	release := make(chan struct{})
	done := make(chan int64, 2)

	q := newUserQueue(func(u tgbotapi.Update) {
		if updateUserID(u) == 1 {
			<-release
		}
		done <- updateUserID(u)
	})

	q.push(1, messageFrom(1, 1))
	q.push(2, messageFrom(2, 2))

	// user 2 is not stuck behind user 1
	select {
	case id := <-done:
		assert.Equal(t, int64(2), id)
	case <-time.After(time.Second):
		t.Fatal("user 2 was blocked by user 1")
	}
	close(release)
	q.wait()
	assert.Equal(t, int64(1), <-done)
}

func TestUserQueueWaitCoversInFlightUpdates(t *testing.T) {
	release := make(chan struct{})
	q := newUserQueue(func(tgbotapi.Update) { <-release })
	q.push(1, messageFrom(1, 1))
	q.push(1, messageFrom(1, 2))

	waited := make(chan struct{})
	go func() {
		q.wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("wait returned while updates were still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after the updates finished")
	}
}

func TestUpdateUserID(t *testing.T) {
	assert.Equal(t, int64(5), updateUserID(messageFrom(5, 1)))

	callback := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{From: &tgbotapi.User{ID: 9}}}
	assert.Equal(t, int64(9), updateUserID(callback))

	require.Zero(t, updateUserID(tgbotapi.Update{}))
}
