package task

import (
	"time"

	"github.com/example/taskboard/domain/task"
)

// Outcome codes carried in MutationResponse.ErrorCode. Errors crossing
// the service bus lose their Go type, so outcomes travel as data and
// callers map them back to transport-level responses.
const (
	ErrCodeValidation = "validation"
	ErrCodeNotFound   = "not_found"
)

// CreateTaskRequest is the request for the create-task service.
type CreateTaskRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	AssignedTo  string        `json:"assigned_to,omitempty"`
	Status      task.Status   `json:"status,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
	ActorID     string        `json:"actor_id,omitempty"`
}

// UpdateTaskRequest is the request for the update-task service. Empty
// fields keep the stored value; UpdatedAt is the expected lock token.
type UpdateTaskRequest struct {
	TaskID      string        `json:"task_id"`
	Title       string        `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	AssignedTo  string        `json:"assigned_to,omitempty"`
	Status      task.Status   `json:"status,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
	ActorID     string        `json:"actor_id,omitempty"`
}

// SmartAssignRequest is the request for the smart-assign service.
type SmartAssignRequest struct {
	TaskID    string    `json:"task_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeleteTaskRequest is the request for the delete-task service.
type DeleteTaskRequest struct {
	TaskID  string `json:"task_id"`
	ActorID string `json:"actor_id,omitempty"`
}

// DeleteTaskResponse is the response for the delete-task service.
// Deleting an unknown id still succeeds, last delete wins.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// ListTasksRequest is the request for the list-tasks service.
type ListTasksRequest struct{}

// ListTasksResponse is the response for the list-tasks service.
type ListTasksResponse struct {
	Tasks []task.View `json:"tasks"`
	Total int         `json:"total"`
}

// MutationResponse is the shared response for create-task, update-task
// and smart-assign. Exactly one of Task, Conflict or ErrorCode is set.
type MutationResponse struct {
	Task         *task.View `json:"task,omitempty"`
	Conflict     bool       `json:"conflict,omitempty"`
	ServerData   *task.View `json:"server_data,omitempty"`
	ErrorCode    string     `json:"error_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}
