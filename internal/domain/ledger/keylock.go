package ledger

import (
	"sync"

	"github.com/okian/crease/internal/domain/model"
)

// keyLocks hands out one mutex per key and drops it when no one holds or waits on it.
type keyLocks struct {
	mu    sync.Mutex
	locks map[model.ScoreKey]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[model.ScoreKey]*keyLock)}
}

// Lock blocks until key is held and returns its unlock func.
func (k *keyLocks) Lock(key model.ScoreKey) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
