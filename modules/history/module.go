package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module owns the message store and serves it over request-reply.
type Module struct {
	cfg     Config
	store   Store
	service *Service
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a history module for cfg.
func NewModule(cfg Config, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "history"
}

// Start opens the configured backend.
func (m *Module) Start(ctx context.Context) error {
	store, err := Open(ctx, m.cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s history store: %w", m.cfg.Backend, err)
	}

	service, err := NewService(store, m.cfg.DefaultLimit)
	if err != nil {
		_ = store.Close()
		return err
	}

	m.store = store
	m.service = service
	m.logger.Info("History module started", "backend", m.cfg.Backend, "limit", service.DefaultLimit())
	return nil
}

// Stop closes the store.
func (m *Module) Stop(_ context.Context) error {
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			m.logger.Warn("Failed to close history store", "error", err)
		}
	}
	m.logger.Info("History module stopped")
	return nil
}

// Health pings the store.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}
	if err := m.service.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("store ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"backend": m.cfg.Backend,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceAppendMessage,
		json.Unmarshal,
		json.Marshal,
		m.handleAppend,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAppendMessage, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceRecentByRoom,
		json.Unmarshal,
		json.Marshal,
		m.handleRecentByRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRecentByRoom, err)
	}

	m.logger.Info("Registered history services", "services", []string{ServiceAppendMessage, ServiceRecentByRoom})
	return nil
}

var errNotStarted = errors.New("history module not started")

func (m *Module) handleAppend(ctx context.Context, req AppendMessageRequest, _ *mono.Msg) (AppendMessageResponse, error) {
	if m.service == nil {
		return AppendMessageResponse{}, errNotStarted
	}
	msg, err := m.service.Append(ctx, req.Message)
	if err != nil {
		return AppendMessageResponse{}, err
	}
	return AppendMessageResponse{ID: msg.ID}, nil
}

func (m *Module) handleRecentByRoom(ctx context.Context, req RecentByRoomRequest, _ *mono.Msg) (RecentByRoomResponse, error) {
	if m.service == nil {
		return RecentByRoomResponse{}, errNotStarted
	}
	msgs, err := m.service.RecentByRoom(ctx, req.Room, req.Limit)
	if err != nil {
		return RecentByRoomResponse{}, err
	}
	return RecentByRoomResponse{Messages: msgs}, nil
}
