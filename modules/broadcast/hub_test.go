package broadcast

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

// fakeConn records text frames on a channel.
type fakeConn struct {
	frames  chan []byte
	started chan struct{} // signalled when a write begins, if non-nil
	gate    chan struct{} // writes block until closed, if non-nil
	mu      sync.Mutex
	closed  bool
	sawBye  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 256)}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	if messageType == websocket.CloseMessage {
		f.mu.Lock()
		f.sawBye = true
		f.mu.Unlock()
		return nil
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.frames <- data
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

type staticRooms map[string][]string

func (s staticRooms) MembersOf(room string) []string { return s[room] }

func recv(t *testing.T, c *fakeConn) Frame {
	t.Helper()
	select {
	case raw := <-c.frames:
		var f struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("bad frame %q: %v", raw, err)
		}
		return Frame{Event: f.Event, Data: f.Data}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return Frame{}
}

func expectNothing(t *testing.T, c *fakeConn) {
	t.Helper()
	select {
	case raw := <-c.frames:
		t.Errorf("unexpected frame %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func setup(t *testing.T, rooms staticRooms, ids ...string) (*Hub, *Broadcaster, map[string]*fakeConn) {
	t.Helper()
	hub := NewHub(16, &mockLogger{})
	conns := make(map[string]*fakeConn, len(ids))
	for _, id := range ids {
		conns[id] = newFakeConn()
		hub.Attach(id, conns[id])
	}
	t.Cleanup(func() { hub.Close(time.Second) })
	return hub, NewBroadcaster(hub, rooms, &mockLogger{}), conns
}

func TestBroadcaster_ToAll(t *testing.T) {
	_, b, conns := setup(t, nil, "a", "b", "c")

	b.ToAll("online_users", []string{"alice"})

	for id, c := range conns {
		f := recv(t, c)
		if f.Event != "online_users" {
			t.Errorf("%s got event %q", id, f.Event)
		}
		if string(f.Data.(json.RawMessage)) != `["alice"]` {
			t.Errorf("%s got data %s", id, f.Data)
		}
	}
}

func TestBroadcaster_ToRoom(t *testing.T) {
	rooms := staticRooms{"dev": {"a", "b"}}
	_, b, conns := setup(t, rooms, "a", "b", "c")

	payload := json.RawMessage(`{"sender":"alice","content":"hi","room":"dev"}`)
	b.ToRoom("dev", "receive_message", payload)

	for _, id := range []string{"a", "b"} {
		f := recv(t, conns[id])
		if got := string(f.Data.(json.RawMessage)); got != string(payload) {
			t.Errorf("%s data = %s, want %s", id, got, payload)
		}
	}
	expectNothing(t, conns["c"])
}

func TestBroadcaster_ToRoomWithoutMembers(t *testing.T) {
	_, b, conns := setup(t, staticRooms{}, "a")

	b.ToRoom("empty", "receive_message", "x")
	expectNothing(t, conns["a"])
}

func TestBroadcaster_ToAllExcept(t *testing.T) {
	_, b, conns := setup(t, nil, "a", "b", "c")

	b.ToAllExcept("a", "hide_typing", nil)

	expectNothing(t, conns["a"])
	for _, id := range []string{"b", "c"} {
		raw := <-conns[id].frames
		if string(raw) != `{"event":"hide_typing"}` {
			t.Errorf("%s frame = %s", id, raw)
		}
	}
}

func TestBroadcaster_ToConn(t *testing.T) {
	_, b, conns := setup(t, nil, "a", "b")

	b.ToConn("b", "chat_history", []string{})

	if f := recv(t, conns["b"]); f.Event != "chat_history" {
		t.Errorf("event = %q, want chat_history", f.Event)
	}
	expectNothing(t, conns["a"])

	// Unknown ids are ignored.
	b.ToConn("ghost", "chat_history", nil)
}

func TestHub_PreservesPerConnectionOrder(t *testing.T) {
	hub, _, conns := setup(t, nil, "a")

	for i := 0; i < 10; i++ {
		hub.SendAll([]byte{byte('0' + i)})
	}
	for i := 0; i < 10; i++ {
		got := <-conns["a"].frames
		if got[0] != byte('0'+i) {
			t.Fatalf("frame %d = %q, out of order", i, got)
		}
	}
}

func TestHub_DropsWhenQueueFull(t *testing.T) {
	hub := NewHub(1, &mockLogger{})
	conn := newFakeConn()
	conn.started = make(chan struct{}, 4)
	conn.gate = make(chan struct{})
	hub.Attach("slow", conn)

	hub.SendAll([]byte("1"))
	<-conn.started // pump is now blocked writing frame 1

	hub.SendAll([]byte("2")) // fills the queue
	hub.SendAll([]byte("3")) // dropped

	if got := hub.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}

	close(conn.gate)
	if got := string(<-conn.frames); got != "1" {
		t.Errorf("first frame = %s", got)
	}
	if got := string(<-conn.frames); got != "2" {
		t.Errorf("second frame = %s", got)
	}
	hub.Close(time.Second)
}

func TestHub_DetachFlushesAndCloses(t *testing.T) {
	hub := NewHub(8, &mockLogger{})
	conn := newFakeConn()
	client := hub.Attach("a", conn)

	hub.SendAll([]byte("last"))
	hub.Detach("a")
	hub.Detach("a") // second detach is a no-op

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatal("pump did not exit")
	}

	if got := string(<-conn.frames); got != "last" {
		t.Errorf("frame = %s, want last", got)
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if !conn.sawBye {
		t.Error("expected close frame after detach")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}
