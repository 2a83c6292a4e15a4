package api

import (
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	tasks "github.com/example/taskboard/domain/task"
	user "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/broadcast"
	"github.com/example/taskboard/modules/task"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint. The token travels as a query parameter since
	// browsers cannot set headers on a WebSocket handshake.
	m.app.Use("/ws", m.websocketGuard)
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := m.app.Group("/api/v1")

	// Public auth routes
	api.Post("/auth/register", m.register)
	api.Post("/auth/login", m.login)

	// Board routes require a session
	board := api.Group("/", AuthMiddleware(m.authAdapter))
	board.Get("/tasks", m.listTasks)
	board.Post("/tasks", m.createTask)
	board.Put("/tasks/:id", m.updateTask)
	board.Post("/tasks/smart-assign/:id", m.smartAssign)
	board.Delete("/tasks/:id", m.deleteTask)
	board.Get("/logs", m.getLogs)
	board.Get("/users", m.getUsers)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// register handles POST /api/v1/auth/register.
func (m *APIModule) register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	resp, err := m.authAdapter.Register(c.UserContext(), auth.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "register_failed",
			Message: "Failed to register user",
		})
	}

	switch resp.ErrorCode {
	case "":
	case auth.ErrCodeUserExists:
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "user_exists",
			Message: resp.ErrorMessage,
		})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: resp.ErrorMessage,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(MessageResponse{
		Message: "User registered successfully",
	})
}

// login handles POST /api/v1/auth/login.
func (m *APIModule) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	resp, err := m.authAdapter.Login(c.UserContext(), auth.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "login_failed",
			Message: "Failed to log in",
		})
	}

	switch resp.ErrorCode {
	case "":
	case auth.ErrCodeUserNotFound:
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "user_not_found",
			Message: resp.ErrorMessage,
		})
	case auth.ErrCodeInvalidCredentials:
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "invalid_credentials",
			Message: resp.ErrorMessage,
		})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: resp.ErrorMessage,
		})
	}

	return c.JSON(LoginResponse{
		Token:    resp.Token,
		UserID:   resp.UserID,
		Username: resp.Username,
		Email:    resp.Email,
	})
}

// listTasks handles GET /api/v1/tasks.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	list, err := m.taskAdapter.List(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list tasks",
		})
	}
	return c.JSON(list)
}

// createTask handles POST /api/v1/tasks.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	resp, err := m.taskAdapter.Create(c.UserContext(), task.CreateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Status:      req.Status,
		Priority:    req.Priority,
		ActorID:     m.actorFor(c, req.AssignedTo),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create task",
		})
	}
	return m.mutationResult(c, resp, fiber.StatusCreated)
}

// updateTask handles PUT /api/v1/tasks/:id.
func (m *APIModule) updateTask(c *fiber.Ctx) error {
	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	resp, err := m.taskAdapter.Update(c.UserContext(), task.UpdateTaskRequest{
		TaskID:      c.Params("id"),
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Status:      req.Status,
		Priority:    req.Priority,
		UpdatedAt:   req.UpdatedAt,
		ActorID:     m.actorFor(c, req.AssignedTo),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to update task",
		})
	}
	return m.mutationResult(c, resp, fiber.StatusOK)
}

// smartAssign handles POST /api/v1/tasks/smart-assign/:id.
func (m *APIModule) smartAssign(c *fiber.Ctx) error {
	var req SmartAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	resp, err := m.taskAdapter.SmartAssign(c.UserContext(), task.SmartAssignRequest{
		TaskID:    c.Params("id"),
		UpdatedAt: req.UpdatedAt,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "smart_assign_failed",
			Message: "Failed to smart-assign task",
		})
	}
	return m.mutationResult(c, resp, fiber.StatusOK)
}

// deleteTask handles DELETE /api/v1/tasks/:id.
func (m *APIModule) deleteTask(c *fiber.Ctx) error {
	actor := ""
	if claims := claimsFromCtx(c); claims != nil {
		actor = claims.UserID
	}

	if _, err := m.taskAdapter.Delete(c.UserContext(), task.DeleteTaskRequest{
		TaskID:  c.Params("id"),
		ActorID: actor,
	}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete task",
		})
	}
	return c.JSON(MessageResponse{Message: "Task deleted"})
}

// getLogs handles GET /api/v1/logs.
func (m *APIModule) getLogs(c *fiber.Ctx) error {
	entries, err := m.activityAdapter.Recent(c.UserContext(), activity.DefaultRecentLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "logs_failed",
			Message: "Failed to fetch activity log",
		})
	}
	return c.JSON(entries)
}

// getUsers handles GET /api/v1/users.
func (m *APIModule) getUsers(c *fiber.Ctx) error {
	users, err := m.authAdapter.ListUsers(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "users_failed",
			Message: "Failed to list users",
		})
	}
	return c.JSON(users)
}

// mutationResult maps a task mutation outcome to an HTTP response.
func (m *APIModule) mutationResult(c *fiber.Ctx, resp task.MutationResponse, successStatus int) error {
	if resp.Conflict {
		var server tasks.View
		if resp.ServerData != nil {
			server = *resp.ServerData
		}
		return c.Status(fiber.StatusConflict).JSON(ConflictResponse{
			Conflict:   true,
			Message:    "Task was modified by someone else",
			ServerData: server,
		})
	}
	switch resp.ErrorCode {
	case "":
	case task.ErrCodeNotFound:
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: resp.ErrorMessage,
		})
	}
	return c.Status(successStatus).JSON(resp.Task)
}

// actorFor picks the user recorded in the activity log for a mutation:
// the assignee named in the request, else the caller.
func (m *APIModule) actorFor(c *fiber.Ctx, assignedTo string) string {
	if assignedTo != "" {
		return assignedTo
	}
	if claims := claimsFromCtx(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// websocketGuard authenticates the handshake before the upgrade.
func (m *APIModule) websocketGuard(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Token is required",
		})
	}

	claims, err := m.authAdapter.VerifyToken(c.UserContext(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired token",
		})
	}

	c.Locals(UserContextKey, claims)
	return c.Next()
}

// handleWebSocket serves the push channel at /ws. The server only
// pushes; incoming frames are drained until the client goes away.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	claims, ok := c.Locals(UserContextKey).(*user.Claims)
	if !ok {
		_ = c.Close()
		return
	}

	client := &broadcast.Client{
		ID:       uuid.New().String(),
		UserID:   claims.UserID,
		Username: claims.Username,
		Conn:     c,
	}

	m.hub.Register(client)
	defer func() {
		m.hub.Unregister(client)
		log.Printf("[api] WebSocket client disconnected: %s (%s)", client.ID, client.Username)
	}()

	log.Printf("[api] WebSocket client connected: %s (%s)", client.ID, client.Username)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Client %s closed connection", client.ID)
			} else {
				log.Printf("[api] Read error from %s: %v", client.ID, err)
			}
			return
		}
	}
}
