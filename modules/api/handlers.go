package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const maxHistoryLimit = 1000

func (m *Module) registerRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	app.Post("/signup", m.signup)
	app.Post("/login", m.login)
	app.Get("/users", m.listUsers)

	v1 := app.Group("/api/v1")
	v1.Get("/online", m.listOnline)
	v1.Get("/rooms", m.listRooms)
	v1.Get("/rooms/:room/history", m.roomHistory)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	details := map[string]any{
		"connections":    m.hub.ClientCount(),
		"dropped_frames": m.hub.Dropped(),
	}

	status := "healthy"
	if users, err := m.chat.OnlineUsers(c.UserContext()); err == nil {
		details["online_users"] = len(users)
	} else {
		status = "degraded"
	}
	if rooms, err := m.chat.ListRooms(c.UserContext()); err == nil {
		details["rooms"] = len(rooms)
	} else {
		status = "degraded"
	}

	return c.JSON(HealthResponse{Status: status, Details: details})
}

// listOnline handles GET /api/v1/online.
func (m *Module) listOnline(c *fiber.Ctx) error {
	users, err := m.chat.OnlineUsers(c.UserContext())
	if err != nil {
		m.logger.Warn("Failed to list online users", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list online users",
		})
	}
	return c.JSON(OnlineResponse{Users: users})
}

// listRooms handles GET /api/v1/rooms.
func (m *Module) listRooms(c *fiber.Ctx) error {
	rooms, err := m.chat.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Warn("Failed to list rooms", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}
	return c.JSON(RoomListResponse{Rooms: rooms})
}

// roomHistory handles GET /api/v1/rooms/:room/history.
func (m *Module) roomHistory(c *fiber.Ctx) error {
	room := c.Params("room")
	limit := m.historyLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxHistoryLimit {
			limit = parsed
		}
	}

	msgs, err := m.history.RecentByRoom(c.UserContext(), room, limit)
	if err != nil {
		m.logger.Warn("Failed to load history", "room", room, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "history_failed",
			Message: "Failed to load history",
		})
	}
	return c.JSON(HistoryResponse{Room: room, Messages: msgs})
}

// signup handles POST /signup.
func (m *Module) signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	if err := m.accounts.Signup(c.UserContext(), req.Username, req.Email, req.Password); err != nil {
		return m.handleAccountError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(MessageResponse{Message: "Signup successful!"})
}

// login handles POST /login.
func (m *Module) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	username, err := m.accounts.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return m.handleAccountError(c, err)
	}
	return c.JSON(LoginResponse{Success: true, Username: username})
}

// listUsers handles GET /users.
func (m *Module) listUsers(c *fiber.Ctx) error {
	names, err := m.accounts.ListUsernames(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list users", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "error fetching users",
		})
	}
	return c.JSON(names)
}

// handleAccountError maps account service errors, which arrive as text over
// request-reply, onto HTTP responses without exposing internals.
func (m *Module) handleAccountError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "all fields are required"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "all fields are required",
		})
	case strings.Contains(errStr, "username must not contain spaces"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "username must not contain spaces",
		})
	case strings.Contains(errStr, "invalid email format"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "invalid email format",
		})
	case strings.Contains(errStr, "password must be at most"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "password must be at most 72 bytes",
		})
	case strings.Contains(errStr, "username or email already exists"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "username or email already exists",
		})
	case strings.Contains(errStr, "invalid username or password"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "invalid username or password",
		})
	default:
		m.logger.Error("Account request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
