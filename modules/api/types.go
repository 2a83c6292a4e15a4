package api

import (
	"time"

	"github.com/example/taskboard/domain/task"
)

// RegisterRequest is the API request to create an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the API request to start a session.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the API response for a successful login.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateTaskRequest is the API request to create a task.
type CreateTaskRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	AssignedTo  string        `json:"assignedTo"`
	Status      task.Status   `json:"status"`
	Priority    task.Priority `json:"priority"`
}

// UpdateTaskRequest is the API request to update a task. UpdatedAt is
// the lock token from the caller's last read; a nil Description leaves
// the stored description untouched.
type UpdateTaskRequest struct {
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	AssignedTo  string        `json:"assignedTo"`
	Status      task.Status   `json:"status"`
	Priority    task.Priority `json:"priority"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// SmartAssignRequest is the API request to auto-assign a task.
type SmartAssignRequest struct {
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConflictResponse is returned with a 409 when a mutation carried a
// stale updatedAt. ServerData holds the current server-side task so the
// client can offer a merge.
type ConflictResponse struct {
	Conflict   bool      `json:"conflict"`
	Message    string    `json:"message"`
	ServerData task.View `json:"serverData"`
}

// MessageResponse is a generic confirmation response.
type MessageResponse struct {
	Message string `json:"message"`
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
