package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	domain "github.com/example/nextalk-server/domain/chat"
	nanoid "github.com/jaevor/go-nanoid"
	"golang.org/x/sync/singleflight"
)

// Service applies defaults in front of a Store.
type Service struct {
	store        Store
	defaultLimit int
	newID        func() string
	now          func() time.Time
	sfGroup      singleflight.Group // collapses concurrent scrollback loads for one room
}

// NewService creates a Service over store.
func NewService(store Store, defaultLimit int) (*Service, error) {
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Service{
		store:        store,
		defaultLimit: defaultLimit,
		newID:        gen,
		now:          time.Now,
	}, nil
}

// Append fills in id, room and timestamp when missing and stores msg.
func (s *Service) Append(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if msg.ID == "" {
		msg.ID = s.newID()
	}
	msg.Room = domain.RoomOrDefault(msg.Room)
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	msg.Timestamp = msg.Timestamp.UTC()

	if err := s.store.Append(ctx, msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// RecentByRoom returns scrollback for room. limit <= 0 uses the default depth.
func (s *Service) RecentByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	room = domain.RoomOrDefault(room)
	if limit <= 0 {
		limit = s.defaultLimit
	}

	key := room + "\x00" + strconv.Itoa(limit)
	v, err, _ := s.sfGroup.Do(key, func() (any, error) {
		return s.store.RecentByRoom(ctx, room, limit)
	})
	if err != nil {
		return nil, err
	}

	shared := v.([]domain.Message)
	out := make([]domain.Message, len(shared))
	copy(out, shared)
	return out, nil
}

// DefaultLimit returns the depth used when callers pass no limit.
func (s *Service) DefaultLimit() int {
	return s.defaultLimit
}

// Ping checks the underlying store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
