package progress

import (
	"sync"

	"github.com/google/uuid"
)

// learnerLocks serializes mutations per learner. Two concurrent requests
// for the same learner take turns; different learners never contend.
type learnerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLearnerLocks() *learnerLocks {
	return &learnerLocks{locks: make(map[uuid.UUID]*lockEntry)}
}

// acquire blocks until the learner's lock is held and returns the release
// function. Entries are reference counted so the map does not grow with
// every learner ever seen.
func (l *learnerLocks) acquire(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lockEntry{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
