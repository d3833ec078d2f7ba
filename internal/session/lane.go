package session

import "sync"

// LaneLock serializes dispatches per user while letting different users
// proceed in parallel. A global mutex protects the lane map; each lane has
// its own mutex, and the global one is held only to find or create it.
type LaneLock struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

// lane counts goroutines holding or waiting on it so idle lanes can be
// dropped from the map.
type lane struct {
	mu   sync.Mutex
	refs int
}

// NewLaneLock creates a ready-to-use LaneLock.
func NewLaneLock() *LaneLock {
	return &LaneLock{lanes: make(map[string]*lane)}
}

// Acquire locks the lane for userID. The caller must call Release.
func (l *LaneLock) Acquire(userID string) {
	l.mu.Lock()
	ln, ok := l.lanes[userID]
	if !ok {
		ln = &lane{}
		l.lanes[userID] = ln
	}
	ln.refs++
	l.mu.Unlock()

	// Lock outside the global mutex so other users are not blocked.
	ln.mu.Lock()
}

// Release unlocks the lane for userID and forgets it once unused.
func (l *LaneLock) Release(userID string) {
	l.mu.Lock()
	ln, ok := l.lanes[userID]
	if !ok {
		l.mu.Unlock()
		return
	}
	ln.refs--
	if ln.refs == 0 {
		delete(l.lanes, userID)
	}
	l.mu.Unlock()

	ln.mu.Unlock()
}

// Len returns the number of lanes currently held or awaited.
func (l *LaneLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lanes)
}
