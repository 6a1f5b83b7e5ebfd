package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/example/nextalk-server/domain/chat"
	"github.com/example/nextalk-server/events"
	"github.com/example/nextalk-server/modules/rooms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistoryPort struct {
	appended []domain.Message
	err      error
}

func (f *fakeHistoryPort) Append(_ context.Context, msg domain.Message) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, msg)
	return nil
}

func (f *fakeHistoryPort) RecentByRoom(_ context.Context, _ string, _ int) ([]domain.Message, error) {
	return nil, f.err
}

func newTestModule() *Module {
	return NewModule(&recordingBroadcaster{}, rooms.NewManager(), 50, &mockLogger{})
}

func TestModule_Name(t *testing.T) {
	m := newTestModule()
	assert.Equal(t, "chat", m.Name())
	assert.Equal(t, []string{"history"}, m.Dependencies())
}

func TestModule_StartRequiresHistory(t *testing.T) {
	m := newTestModule()
	assert.Error(t, m.Start(context.Background()))

	m.history = &fakeHistoryPort{}
	assert.NoError(t, m.Start(context.Background()))
}

func TestModule_PersistWithoutEventBus(t *testing.T) {
	m := newTestModule()
	err := m.Persist(context.Background(), "c1", domain.Message{Sender: "a", Content: "b"})
	assert.Error(t, err)
}

func TestModule_HandleMessagePosted(t *testing.T) {
	m := newTestModule()
	port := &fakeHistoryPort{}
	m.history = port

	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	err := m.handleMessagePosted(context.Background(), events.MessagePostedEvent{
		ConnID:    "c1",
		Sender:    "alice",
		Content:   "hi",
		Room:      "dev",
		Timestamp: ts,
	}, nil)
	require.NoError(t, err)
	require.Len(t, port.appended, 1)
	assert.Equal(t, domain.Message{Sender: "alice", Content: "hi", Room: "dev", Timestamp: ts}, port.appended[0])
}

func TestModule_HandleMessagePostedSwallowsStoreErrors(t *testing.T) {
	m := newTestModule()
	m.history = &fakeHistoryPort{err: errors.New("store down")}

	err := m.handleMessagePosted(context.Background(), events.MessagePostedEvent{Sender: "a"}, nil)
	assert.NoError(t, err)
}

func TestModule_HandleListRoomsSorted(t *testing.T) {
	m := newTestModule()
	m.relay.Open("a").JoinRoom(context.Background(), "zeta")
	m.relay.Open("b").JoinRoom(context.Background(), "alpha")
	m.relay.Open("c").JoinRoom(context.Background(), "alpha")

	resp, err := m.handleListRooms(context.Background(), ListRoomsRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []RoomInfo{
		{Name: "alpha", Members: 2},
		{Name: "zeta", Members: 1},
	}, resp.Rooms)
}

func TestModule_HandleOnlineUsers(t *testing.T) {
	m := newTestModule()
	m.relay.Open("a").Register("bob")
	m.relay.Open("b").Register("alice")
	m.relay.Open("c").Register("alice")

	resp, err := m.handleOnlineUsers(context.Background(), OnlineUsersRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, resp.Users)
}

func TestModule_Health(t *testing.T) {
	m := newTestModule()
	m.relay.Open("a").Register("alice")

	status := m.Health(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, status.Details["online_users"])
	assert.Equal(t, 1, status.Details["registered_connections"])
}

func TestModule_StopWaitsOnlyForPersisterCalls(t *testing.T) {
	m := newTestModule()
	p := &fakePersister{block: make(chan struct{})}
	m.relay.persister = p
	m.relay.persist("c1", domain.Message{Sender: "a", Content: "b", Room: "dev"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, m.Stop(ctx), "Stop gives up on a stuck publish without failing")

	close(p.block)
	assert.NoError(t, m.Stop(context.Background()))
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Len(t, p.got, 1)
}
