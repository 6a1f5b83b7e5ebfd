package chat

import "time"

// DefaultRoom is used whenever a room name is missing.
const DefaultRoom = "general"

// Message is a chat message as persisted and replayed in history.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomOrDefault returns room, or DefaultRoom when room is empty.
func RoomOrDefault(room string) string {
	if room == "" {
		return DefaultRoom
	}
	return room
}

// Event names carried on the WebSocket channel.
const (
	EventRegister       = "register"
	EventJoinRoom       = "join_room"
	EventChatHistory    = "chat_history"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventTyping         = "typing"
	EventDisplayTyping  = "display_typing"
	EventStopTyping     = "stop_typing"
	EventHideTyping     = "hide_typing"
	EventOnlineUsers    = "online_users"
)
