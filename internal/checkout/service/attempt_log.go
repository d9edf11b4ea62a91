package service

import (
	"container/list"
	"sync"

	d "github.com/fjod/storefront/internal/checkout/domain"
)

const defaultAttemptLogSize = 1000

type attemptEntry struct {
	userID string
	result *d.Result
}

// AttemptLog keeps the most recent finished attempts, evicting the oldest
// once full.
type AttemptLog struct {
	mu    sync.Mutex
	max   int
	order *list.List
	byID  map[string]*list.Element
}

func NewAttemptLog(max int) *AttemptLog {
	if max <= 0 {
		max = defaultAttemptLogSize
	}
	return &AttemptLog{
		max:   max,
		order: list.New(),
		byID:  make(map[string]*list.Element),
	}
}

func (l *AttemptLog) Add(userID string, r *d.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.byID[r.AttemptID]; ok {
		el.Value = attemptEntry{userID: userID, result: r}
		return
	}
	l.byID[r.AttemptID] = l.order.PushBack(attemptEntry{userID: userID, result: r})
	for l.order.Len() > l.max {
		oldest := l.order.Front()
		l.order.Remove(oldest)
		delete(l.byID, oldest.Value.(attemptEntry).result.AttemptID)
	}
}

// Get only returns attempts that belong to userID.
func (l *AttemptLog) Get(attemptID, userID string) (*d.Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	el, ok := l.byID[attemptID]
	if !ok {
		return nil, false
	}
	entry := el.Value.(attemptEntry)
	if entry.userID != userID {
		return nil, false
	}
	r := *entry.result
	return &r, true
}

func (l *AttemptLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}
