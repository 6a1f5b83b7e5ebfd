package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ChatPort is the read-only view of relay state other modules may query.
type ChatPort interface {
	OnlineUsers(ctx context.Context) ([]string, error)
	ListRooms(ctx context.Context) ([]RoomInfo, error)
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &ChatAdapter{container: container}
}

// OnlineUsers returns the distinct online usernames.
func (a *ChatAdapter) OnlineUsers(ctx context.Context) ([]string, error) {
	req := OnlineUsersRequest{}
	var resp OnlineUsersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceOnlineUsers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	if resp.Users == nil {
		return []string{}, nil
	}
	return resp.Users, nil
}

// ListRooms returns every room that has members.
func (a *ChatAdapter) ListRooms(ctx context.Context) ([]RoomInfo, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	if resp.Rooms == nil {
		return []RoomInfo{}, nil
	}
	return resp.Rooms, nil
}
