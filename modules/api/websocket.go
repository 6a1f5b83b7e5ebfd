package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/nextalk-server/modules/chat"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const (
	pongWait      = 60 * time.Second
	maxFrameBytes = 64 << 10
)

// handleWebSocket runs one connection: frames are read here and written by
// the hub's pump for this connection.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	client := m.hub.Attach(connID, c)
	session := m.relay.Open(connID)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		info := session.Info()
		m.hub.Detach(connID)
		session.Close()
		<-client.Done()
		m.logger.Info("WebSocket disconnected",
			"connID", connID,
			"username", info.Username,
			"registered", info.Registered,
			"rooms", info.Rooms,
		)
	}()

	m.logger.Info("WebSocket connected", "connID", connID, "remote", c.RemoteAddr().String())

	c.SetReadLimit(maxFrameBytes)
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debug("WebSocket read error", "connID", connID, "error", err)
			}
			return
		}
		// Any inbound frame proves the peer is alive.
		_ = c.SetReadDeadline(time.Now().Add(pongWait))

		var in inboundFrame
		if err := json.Unmarshal(raw, &in); err != nil {
			m.logger.Debug("Ignoring undecodable frame", "connID", connID, "error", err)
			continue
		}

		if err := session.Handle(ctx, in.Event, in.Data); err != nil {
			if errors.Is(err, chat.ErrUnknownEvent) {
				m.logger.Debug("Ignoring unknown event", "connID", connID, "event", in.Event)
				continue
			}
			m.logger.Debug("Event not handled", "connID", connID, "event", in.Event, "error", err)
		}
	}
}
