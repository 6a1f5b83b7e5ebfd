package broadcast

import (
	"context"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Module owns the WebSocket hub for the lifetime of the application.
type Module struct {
	hub         *Hub
	broadcaster *Broadcaster
	logger      types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a broadcast module. rooms resolves room fan-out.
func NewModule(bufferSize int, rooms RoomDirectory, logger types.Logger) *Module {
	hub := NewHub(bufferSize, logger)
	return &Module{
		hub:         hub,
		broadcaster: NewBroadcaster(hub, rooms, logger),
		logger:      logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// Start is a no-op; pumps start per connection.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Broadcast module started", "buffer", m.hub.bufferSize)
	return nil
}

// Stop flushes and closes every attached connection.
func (m *Module) Stop(ctx context.Context) error {
	clientCount := m.hub.ClientCount()
	wait := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		wait = time.Until(deadline)
	}
	m.hub.Close(wait)
	m.logger.Info("Broadcast module stopped", "clients", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
			"dropped_frames":    m.hub.Dropped(),
		},
	}
}

// Hub returns the hub the API module attaches sockets to.
func (m *Module) Hub() *Hub {
	return m.hub
}

// Broadcaster returns the audience-aware sender used by chat sessions.
func (m *Module) Broadcaster() *Broadcaster {
	return m.broadcaster
}
