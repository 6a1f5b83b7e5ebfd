package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/example/nextalk-server/modules/account"
	"github.com/example/nextalk-server/modules/broadcast"
	"github.com/example/nextalk-server/modules/chat"
	"github.com/example/nextalk-server/modules/history"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Module serves the WebSocket endpoint and the REST routes with Fiber.
type Module struct {
	addr         string
	corsOrigins  string
	historyLimit int

	app      *fiber.App
	relay    *chat.Relay
	hub      *broadcast.Hub
	chat     chat.ChatPort
	history  history.HistoryPort
	accounts account.AccountPort
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the API module. Sessions are opened on relay and their
// sockets attached to hub.
func NewModule(addr, corsOrigins string, historyLimit int, relay *chat.Relay, hub *broadcast.Hub, logger types.Logger) *Module {
	if corsOrigins == "" {
		corsOrigins = "*"
	}
	return &Module{
		addr:         addr,
		corsOrigins:  corsOrigins,
		historyLimit: historyLimit,
		relay:        relay,
		hub:          hub,
		logger:       logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"account", "chat", "history"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "account":
		m.accounts = account.NewAccountAdapter(container)
	case "chat":
		m.chat = chat.NewChatAdapter(container)
	case "history":
		m.history = history.NewAdapter(container)
	}
}

// Start builds the Fiber app and starts listening.
func (m *Module) Start(_ context.Context) error {
	if m.accounts == nil || m.chat == nil || m.history == nil {
		return fmt.Errorf("api dependencies not set")
	}
	if m.relay == nil || m.hub == nil {
		return fmt.Errorf("relay and hub are required")
	}

	m.app = m.newApp()

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", m.addr)
	return nil
}

// Serve runs the app on an existing listener. It blocks until the app stops.
func (m *Module) Serve(ln net.Listener) error {
	if m.app == nil {
		m.app = m.newApp()
	}
	return m.app.Listener(ln)
}

// Stop gracefully shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	m.logger.Info("HTTP server stopped")
	return nil
}

// Health reports whether the server is up and how many sockets it holds.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr":        m.addr,
			"connections": m.hub.ClientCount(),
		},
	}
}

func (m *Module) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "NexTalk",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		UnescapePath:          true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.corsOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.registerRoutes(app)
	return app
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= fiber.StatusInternalServerError {
		m.logger.Error("HTTP error", "code", code, "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
