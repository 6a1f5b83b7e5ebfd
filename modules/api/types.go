package api

import (
	"encoding/json"

	domain "github.com/example/nextalk-server/domain/chat"
	"github.com/example/nextalk-server/modules/chat"
)

// inboundFrame is the envelope every client frame arrives in.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MessageResponse carries a plain status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

// OnlineResponse lists the online usernames.
type OnlineResponse struct {
	Users []string `json:"users"`
}

// RoomListResponse lists rooms that have members.
type RoomListResponse struct {
	Rooms []chat.RoomInfo `json:"rooms"`
}

// HistoryResponse is the recent history of one room.
type HistoryResponse struct {
	Room     string           `json:"room"`
	Messages []domain.Message `json:"messages"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
