package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	domain "github.com/example/nextalk-server/domain/chat"
	"github.com/example/nextalk-server/events"
	"github.com/example/nextalk-server/modules/history"
	"github.com/example/nextalk-server/modules/presence"
	"github.com/example/nextalk-server/modules/rooms"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module hosts the relay. It publishes every sent message as a MessagePosted
// event and consumes its own events to store them through the history module.
type Module struct {
	relay    *Relay
	eventBus mono.EventBus
	history  history.HistoryPort
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a chat module delivering through out and tracking
// membership in rm.
func NewModule(out Broadcaster, rm *rooms.Manager, historyLimit int, logger types.Logger) *Module {
	m := &Module{logger: logger}
	m.relay = NewRelay(
		presence.NewRegistry(),
		rm,
		out,
		logger,
		WithHistoryLimit(historyLimit),
		WithPersister(m),
	)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"history"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "history":
		m.history = history.NewAdapter(container)
		m.relay.history = m.history
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessagePostedV1.ToBase(),
	}
}

// RegisterEventConsumers subscribes to MessagePosted to persist messages.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessagePostedV1, m.handleMessagePosted, m,
	); err != nil {
		return fmt.Errorf("failed to register MessagePosted consumer: %w", err)
	}

	m.logger.Info("Registered chat event consumers")
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceOnlineUsers,
		json.Unmarshal,
		json.Marshal,
		m.handleOnlineUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceOnlineUsers, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListRooms,
		json.Unmarshal,
		json.Marshal,
		m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}
	return nil
}

// Start verifies wiring.
func (m *Module) Start(_ context.Context) error {
	if m.history == nil {
		return fmt.Errorf("history dependency not set")
	}
	m.logger.Info("Chat module started", "historyLimit", m.relay.historyLimit)
	return nil
}

// Stop waits for pending MessagePosted publishes. Storing a message that was
// already published happens in the history subscriber and is not awaited.
func (m *Module) Stop(ctx context.Context) error {
	if err := m.relay.Wait(ctx); err != nil {
		m.logger.Warn("Stopped with messages still being published", "error", err)
	}
	m.logger.Info("Chat module stopped")
	return nil
}

// Health reports relay state.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"registered_connections": m.relay.presence.Len(),
			"online_users":           len(m.relay.OnlineUsernames()),
			"rooms":                  len(m.relay.Rooms()),
		},
	}
}

// Relay returns the shared relay the transport opens sessions on.
func (m *Module) Relay() *Relay {
	return m.relay
}

// Persist publishes msg for asynchronous storage.
func (m *Module) Persist(_ context.Context, connID string, msg domain.Message) error {
	if m.eventBus == nil {
		return fmt.Errorf("event bus not set")
	}
	event := events.MessagePostedEvent{
		ConnID:    connID,
		Sender:    msg.Sender,
		Content:   msg.Content,
		Room:      msg.Room,
		Timestamp: msg.Timestamp,
	}
	if err := events.MessagePostedV1.Publish(m.eventBus, event, nil); err != nil {
		return fmt.Errorf("failed to publish MessagePosted: %w", err)
	}
	return nil
}

// handleMessagePosted stores a posted message. Failures are logged and dropped.
func (m *Module) handleMessagePosted(ctx context.Context, event events.MessagePostedEvent, _ *mono.Msg) error {
	msg := domain.Message{
		Sender:    event.Sender,
		Content:   event.Content,
		Room:      event.Room,
		Timestamp: event.Timestamp,
	}
	if err := m.history.Append(ctx, msg); err != nil {
		m.logger.Warn("Failed to store message", "connID", event.ConnID, "room", event.Room, "error", err)
		return nil
	}
	m.logger.Debug("Stored message", "connID", event.ConnID, "room", event.Room)
	return nil
}

func (m *Module) handleOnlineUsers(_ context.Context, _ OnlineUsersRequest, _ *mono.Msg) (OnlineUsersResponse, error) {
	return OnlineUsersResponse{Users: m.relay.OnlineUsernames()}, nil
}

func (m *Module) handleListRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	counts := m.relay.Rooms()
	rooms := make([]RoomInfo, 0, len(counts))
	for name, n := range counts {
		rooms = append(rooms, RoomInfo{Name: name, Members: n})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return ListRoomsResponse{Rooms: rooms}, nil
}
