package services

import (
	"sync"

	"github.com/Dosada05/tabroom/models"
)

// roundKey identifies one round of one stage of a tournament.
type roundKey struct {
	tournamentID int
	stage        models.Stage
	round        int
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// roundLocks hands out one mutex per key and forgets it once nobody holds or
// waits for it.
type roundLocks struct {
	mu    sync.Mutex
	locks map[roundKey]*refMutex
}

func newRoundLocks() *roundLocks {
	return &roundLocks{locks: make(map[roundKey]*refMutex)}
}

func (l *roundLocks) lock(key roundKey) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &refMutex{}
		l.locks[key] = m
	}
	m.refs++
	l.mu.Unlock()

	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *roundLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
