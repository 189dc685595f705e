package transcript

import (
	"sync"
	"time"
)

// Store is the append-only transcript. Append is the only mutator; readers
// get copies, so stored messages never change once appended.
type Store struct {
	mu       sync.RWMutex
	seq      uint64
	messages []Message
	byID     map[uint64]int
	now      func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		messages: []Message{},
		byID:     map[uint64]int{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append stamps msg with the next ID and the current time, stores it, and
// returns the stamped copy. Any ID or CreatedAt already on msg is replaced.
func (s *Store) Append(msg Message) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	stamped := msg.clone()
	stamped.ID = s.seq
	stamped.CreatedAt = s.now()
	s.byID[stamped.ID] = len(s.messages)
	s.messages = append(s.messages, stamped)
	return stamped.clone()
}

// All returns every message in append order.
func (s *Store) All() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	for i, msg := range s.messages {
		out[i] = msg.clone()
	}
	return out
}

// Get looks a message up by ID.
func (s *Store) Get(id uint64) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return Message{}, false
	}
	return s.messages[idx].clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
