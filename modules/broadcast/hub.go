package broadcast

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 50 * time.Second
)

// Conn is the part of a WebSocket connection the hub writes to.
// *websocket.Conn from gofiber/contrib/websocket satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one attached connection with its outbound queue.
// Only the client's write pump touches the underlying Conn.
type Client struct {
	ID   string
	conn Conn
	send chan []byte
	done chan struct{}
}

// Done is closed once the write pump has exited.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) writePump(logger types.Logger, ping time.Duration) {
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		close(c.done)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug("Write failed, stopping pump", "connID", c.ID, "error", err)
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

// Hub owns every attached client. Enqueueing never blocks: a client whose
// queue is full misses the frame.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	bufferSize int
	ping       time.Duration
	dropped    atomic.Uint64
	logger     types.Logger
}

// NewHub creates a Hub whose clients buffer up to bufferSize frames.
func NewHub(bufferSize int, logger types.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Hub{
		clients:    make(map[string]*Client),
		bufferSize: bufferSize,
		ping:       pingPeriod,
		logger:     logger,
	}
}

// Attach registers conn under id and starts its write pump.
// Attaching an id twice replaces the earlier client.
func (h *Hub) Attach(id string, conn Conn) *Client {
	client := &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, h.bufferSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	old := h.clients[id]
	h.clients[id] = client
	h.mu.Unlock()

	if old != nil {
		close(old.send)
	}
	go client.writePump(h.logger, h.ping)
	h.logger.Debug("Client attached", "connID", id)
	return client
}

// Detach removes id and closes its queue. The pump flushes what is queued,
// sends a close frame and exits. Unknown ids are ignored.
func (h *Hub) Detach(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()

	if ok {
		close(client.send)
		h.logger.Debug("Client detached", "connID", id)
	}
}

// SendAll enqueues frame for every client.
func (h *Hub) SendAll(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.enqueue(c, frame)
	}
}

// SendExcept enqueues frame for every client but skip.
func (h *Hub) SendExcept(skip string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id == skip {
			continue
		}
		h.enqueue(c, frame)
	}
}

// SendTo enqueues frame for each listed id that is still attached.
func (h *Hub) SendTo(ids []string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range ids {
		if c, ok := h.clients[id]; ok {
			h.enqueue(c, frame)
		}
	}
}

// must hold h.mu (read)
func (h *Hub) enqueue(c *Client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.dropped.Add(1)
		h.logger.Warn("Send queue full, dropping frame", "connID", c.ID)
	}
}

// ClientCount returns the number of attached clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many frames were discarded on full queues.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close detaches every client and waits for their pumps, bounded by wait.
func (h *Hub) Close(wait time.Duration) {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}

	deadline := time.After(wait)
	for _, c := range clients {
		select {
		case <-c.done:
		case <-deadline:
			return
		}
	}
}
