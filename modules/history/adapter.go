package history

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/nextalk-server/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// HistoryPort is what other modules need from message history.
type HistoryPort interface {
	Append(ctx context.Context, msg domain.Message) error
	RecentByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error)
}

// Adapter implements HistoryPort using the service container.
type Adapter struct {
	container mono.ServiceContainer
}

var _ HistoryPort = (*Adapter)(nil)

// NewAdapter creates a new Adapter.
func NewAdapter(container mono.ServiceContainer) *Adapter {
	return &Adapter{
		container: container,
	}
}

// Append stores msg through the append-message service.
func (a *Adapter) Append(ctx context.Context, msg domain.Message) error {
	req := AppendMessageRequest{Message: msg}
	var resp AppendMessageResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceAppendMessage,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("append-message request failed: %w", err)
	}
	return nil
}

// RecentByRoom loads scrollback through the recent-by-room service.
func (a *Adapter) RecentByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	req := RecentByRoomRequest{Room: room, Limit: limit}
	var resp RecentByRoomResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRecentByRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("recent-by-room request failed: %w", err)
	}

	if resp.Messages == nil {
		return []domain.Message{}, nil
	}
	return resp.Messages, nil
}
