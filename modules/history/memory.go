package history

import (
	"context"
	"sort"
	"sync"

	domain "github.com/example/nextalk-server/domain/chat"
)

// MemoryStore keeps messages per room in timestamp order.
type MemoryStore struct {
	mu         sync.RWMutex
	rooms      map[string][]domain.Message
	maxPerRoom int
	closed     bool
}

// NewMemoryStore creates a MemoryStore. maxPerRoom <= 0 means unbounded.
func NewMemoryStore(maxPerRoom int) *MemoryStore {
	return &MemoryStore{
		rooms:      make(map[string][]domain.Message),
		maxPerRoom: maxPerRoom,
	}
}

// Append inserts msg after every message with a timestamp not after its own.
func (s *MemoryStore) Append(_ context.Context, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	msgs := s.rooms[msg.Room]
	i := sort.Search(len(msgs), func(i int) bool {
		return msgs[i].Timestamp.After(msg.Timestamp)
	})
	msgs = append(msgs, domain.Message{})
	copy(msgs[i+1:], msgs[i:])
	msgs[i] = msg

	if s.maxPerRoom > 0 && len(msgs) > s.maxPerRoom {
		msgs = append([]domain.Message(nil), msgs[len(msgs)-s.maxPerRoom:]...)
	}
	s.rooms[msg.Room] = msgs
	return nil
}

// RecentByRoom returns the newest limit messages of room, oldest first.
func (s *MemoryStore) RecentByRoom(_ context.Context, room string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	msgs := s.rooms[room]
	start := 0
	if limit > 0 && len(msgs) > limit {
		start = len(msgs) - limit
	}
	out := make([]domain.Message, len(msgs)-start)
	copy(out, msgs[start:])
	return out, nil
}

// Ping reports whether the store is open.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close drops all messages.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.rooms = nil
	return nil
}
