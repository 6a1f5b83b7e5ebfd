package history

import (
	domain "github.com/example/nextalk-server/domain/chat"
)

// Service names registered in the history module's container.
const (
	ServiceAppendMessage = "append-message"
	ServiceRecentByRoom  = "recent-by-room"
)

// AppendMessageRequest is the request for append-message.
type AppendMessageRequest struct {
	Message domain.Message `json:"message"`
}

// AppendMessageResponse is the response for append-message.
type AppendMessageResponse struct {
	ID string `json:"id"`
}

// RecentByRoomRequest is the request for recent-by-room.
type RecentByRoomRequest struct {
	Room  string `json:"room"`
	Limit int    `json:"limit"`
}

// RecentByRoomResponse is the response for recent-by-room.
type RecentByRoomResponse struct {
	Messages []domain.Message `json:"messages"`
}
