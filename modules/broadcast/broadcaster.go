package broadcast

import (
	"encoding/json"

	"github.com/go-monolith/mono/pkg/types"
)

// Frame is the wire envelope for every server -> client event.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// RoomDirectory resolves a room to its member connections.
type RoomDirectory interface {
	MembersOf(room string) []string
}

// Broadcaster picks the audience for an event and hands one encoded frame to the hub.
type Broadcaster struct {
	hub    *Hub
	rooms  RoomDirectory
	logger types.Logger
}

// NewBroadcaster creates a Broadcaster over hub and rooms.
func NewBroadcaster(hub *Hub, rooms RoomDirectory, logger types.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		rooms:  rooms,
		logger: logger,
	}
}

// ToAll delivers to every connection.
func (b *Broadcaster) ToAll(event string, payload any) {
	if frame, ok := b.encode(event, payload); ok {
		b.hub.SendAll(frame)
	}
}

// ToRoom delivers to the current members of room.
func (b *Broadcaster) ToRoom(room, event string, payload any) {
	members := b.rooms.MembersOf(room)
	if len(members) == 0 {
		return
	}
	if frame, ok := b.encode(event, payload); ok {
		b.hub.SendTo(members, frame)
	}
}

// ToAllExcept delivers to every connection but connID.
func (b *Broadcaster) ToAllExcept(connID, event string, payload any) {
	if frame, ok := b.encode(event, payload); ok {
		b.hub.SendExcept(connID, frame)
	}
}

// ToConn delivers to a single connection.
func (b *Broadcaster) ToConn(connID, event string, payload any) {
	if frame, ok := b.encode(event, payload); ok {
		b.hub.SendTo([]string{connID}, frame)
	}
}

func (b *Broadcaster) encode(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		b.logger.Error("Failed to marshal frame", "event", event, "error", err)
		return nil, false
	}
	return data, true
}
