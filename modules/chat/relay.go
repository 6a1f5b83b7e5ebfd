package chat

import (
	"context"
	"sync"
	"time"

	domain "github.com/example/nextalk-server/domain/chat"
	"github.com/example/nextalk-server/modules/presence"
	"github.com/example/nextalk-server/modules/rooms"
	"github.com/go-monolith/mono/pkg/types"
)

const defaultPersistTimeout = 5 * time.Second

// Broadcaster delivers events to an audience of connections.
type Broadcaster interface {
	ToAll(event string, payload any)
	ToRoom(room, event string, payload any)
	ToAllExcept(connID, event string, payload any)
	ToConn(connID, event string, payload any)
}

// HistoryReader loads scrollback for a room.
type HistoryReader interface {
	RecentByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error)
}

// Persister hands a message to storage. Failures are logged, never surfaced.
type Persister interface {
	Persist(ctx context.Context, connID string, msg domain.Message) error
}

// Relay is the state shared by every session: who is online, who is in
// which room, and where events go.
type Relay struct {
	presence     *presence.Registry
	rooms        *rooms.Manager
	out          Broadcaster
	history      HistoryReader
	persister    Persister
	historyLimit int
	timeout      time.Duration
	now          func() time.Time
	logger       types.Logger

	// presenceMu orders registry writes with their online_users broadcast.
	presenceMu sync.Mutex
	inflight   sync.WaitGroup
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithHistory sets where join_room loads scrollback from.
func WithHistory(h HistoryReader) RelayOption {
	return func(r *Relay) { r.history = h }
}

// WithPersister sets where send_message records go.
func WithPersister(p Persister) RelayOption {
	return func(r *Relay) { r.persister = p }
}

// WithHistoryLimit sets how many messages chat_history carries.
func WithHistoryLimit(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.historyLimit = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RelayOption {
	return func(r *Relay) { r.now = now }
}

// NewRelay creates a Relay.
func NewRelay(reg *presence.Registry, rm *rooms.Manager, out Broadcaster, logger types.Logger, opts ...RelayOption) *Relay {
	r := &Relay{
		presence:     reg,
		rooms:        rm,
		out:          out,
		historyLimit: 50,
		timeout:      defaultPersistTimeout,
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open starts a session for a freshly connected socket.
func (r *Relay) Open(connID string) *Session {
	r.logger.Debug("Session opened", "connID", connID)
	return &Session{id: connID, relay: r}
}

// OnlineUsernames returns the current online set.
func (r *Relay) OnlineUsernames() []string {
	return r.presence.OnlineUsernames()
}

// Rooms returns member counts per non-empty room.
func (r *Relay) Rooms() map[string]int {
	return r.rooms.Rooms()
}

// ConnInfo describes one connection's chat state.
type ConnInfo struct {
	ID         string
	Username   string
	Registered bool
	Rooms      []string
}

// Connection reports what the relay knows about connID.
func (r *Relay) Connection(connID string) ConnInfo {
	name, ok := r.presence.Username(connID)
	return ConnInfo{
		ID:         connID,
		Username:   name,
		Registered: ok,
		Rooms:      r.rooms.RoomsOf(connID),
	}
}

// Recent loads scrollback for room. limit <= 0 uses the configured depth.
func (r *Relay) Recent(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = r.historyLimit
	}
	if r.history == nil {
		return []domain.Message{}, nil
	}
	return r.history.RecentByRoom(ctx, domain.RoomOrDefault(room), limit)
}

// Wait blocks until in-flight Persister calls return or ctx is done. It says
// nothing about work the Persister itself hands off.
func (r *Relay) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Relay) register(connID, username string) {
	r.presenceMu.Lock()
	defer r.presenceMu.Unlock()

	online := r.presence.Register(connID, username)
	r.out.ToAll(domain.EventOnlineUsers, online)
}

func (r *Relay) disconnect(connID string) {
	r.presenceMu.Lock()
	defer r.presenceMu.Unlock()

	online, removed := r.presence.Remove(connID)
	left := r.rooms.LeaveAll(connID)
	r.logger.Debug("Session closed", "connID", connID, "registered", removed, "rooms", left)
	if removed {
		r.out.ToAll(domain.EventOnlineUsers, online)
	}
}

// persist runs detached from the caller; delivery never waits on it.
func (r *Relay) persist(connID string, msg domain.Message) {
	if r.persister == nil {
		return
	}
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.persister.Persist(ctx, connID, msg); err != nil {
			r.logger.Warn("Failed to persist message", "connID", connID, "room", msg.Room, "error", err)
		}
	}()
}
