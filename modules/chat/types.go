package chat

// Service names registered in the chat module's container.
const (
	ServiceOnlineUsers = "online-users"
	ServiceListRooms   = "list-rooms"
)

// RoomInfo describes a room that currently has members.
type RoomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// OnlineUsersRequest is the request for online-users.
type OnlineUsersRequest struct{}

// OnlineUsersResponse is the response for online-users.
type OnlineUsersResponse struct {
	Users []string `json:"users"`
}

// ListRoomsRequest is the request for list-rooms.
type ListRoomsRequest struct{}

// ListRoomsResponse is the response for list-rooms.
type ListRoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}
