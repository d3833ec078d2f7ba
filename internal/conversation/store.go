// Package conversation keeps the bounded, per-user message history that
// feeds the reply pipeline.
package conversation

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/flemzord/autoreply/pkg/message"
	"github.com/google/uuid"
)

// DefaultCapacity is the number of messages retained per user.
const DefaultCapacity = 50

// ErrStoreFault marks an internal failure while mutating a history.
// It never results from ordinary input.
var ErrStoreFault = errors.New("conversation: store fault")

// history is one user's log. Its mutex serializes Add and History for that
// user only.
type history struct {
	mu       sync.Mutex
	messages []message.Message
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity overrides the per-user cap. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithLogger injects a logger for fault reporting.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is a concurrency-safe map of user ID to bounded history.
//
// The outer RWMutex protects only the map; each history carries its own
// mutex, so traffic for different users never waits on one another beyond
// the map lookup.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*history
	capacity int
	logger   *slog.Logger

	// now and newID are injectable for testing.
	now   func() time.Time
	newID func() string
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		users:    make(map[string]*history),
		capacity: DefaultCapacity,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Capacity returns the per-user history cap.
func (s *Store) Capacity() int {
	return s.capacity
}

// lookup returns the history for userID, creating it when create is set.
func (s *Store) lookup(userID string, create bool) *history {
	s.mu.RLock()
	h := s.users[userID]
	s.mu.RUnlock()
	if h != nil || !create {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h = s.users[userID]; h == nil {
		h = &history{}
		s.users[userID] = h
	}
	return h
}

// Add appends a message to userID's history and trims it to the most
// recent Capacity entries. It returns false, leaving the history untouched,
// only when the store hits an internal fault.
func (s *Store) Add(userID, displayName, content string, origin message.Origin) bool {
	if err := s.append(userID, displayName, content, origin); err != nil {
		s.logger.Error("conversation: add failed",
			"user", userID,
			"origin", origin,
			"error", err,
		)
		return false
	}
	return true
}

func (s *Store) append(userID, displayName, content string, origin message.Origin) (err error) {
	if !origin.Valid() {
		return fmt.Errorf("%w: invalid origin %q", ErrStoreFault, origin)
	}

	h := s.lookup(userID, true)
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStoreFault, r)
		}
	}()

	msg := message.Message{
		ID:          s.newID(),
		Timestamp:   s.now(),
		DisplayName: displayName,
		Content:     content,
		Origin:      origin,
	}

	next := append(h.messages, msg)
	if over := len(next) - s.capacity; over > 0 {
		// Copy into a fresh slice so the evicted prefix can be collected.
		trimmed := make([]message.Message, s.capacity)
		copy(trimmed, next[over:])
		next = trimmed
	}
	h.messages = next
	return nil
}

// History returns a snapshot of userID's messages, oldest first.
// Unknown users yield an empty (nil) slice.
func (s *Store) History(userID string) []message.Message {
	h := s.lookup(userID, false)
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.messages)
}

// Len returns the number of messages currently held for userID.
func (s *Store) Len(userID string) int {
	h := s.lookup(userID, false)
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Clear empties userID's history. The user stays tracked.
func (s *Store) Clear(userID string) {
	h := s.lookup(userID, false)
	if h == nil {
		return
	}
	h.mu.Lock()
	h.messages = nil
	h.mu.Unlock()
}

// ClearAll empties every tracked history.
func (s *Store) ClearAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.users {
		h.mu.Lock()
		h.messages = nil
		h.mu.Unlock()
	}
}

// UserCount returns the number of distinct users ever tracked.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Users returns the tracked user IDs in sorted order.
func (s *Store) Users() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}
