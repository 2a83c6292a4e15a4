package task

import (
	"context"
	"encoding/json"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/taskboard/domain/task"
)

// TaskPort is the interface other modules use to reach the board.
type TaskPort interface {
	List(ctx context.Context) ([]task.View, error)
	Create(ctx context.Context, req CreateTaskRequest) (MutationResponse, error)
	Update(ctx context.Context, req UpdateTaskRequest) (MutationResponse, error)
	SmartAssign(ctx context.Context, req SmartAssignRequest) (MutationResponse, error)
	Delete(ctx context.Context, req DeleteTaskRequest) (DeleteTaskResponse, error)
}

// TaskAdapter implements TaskPort over the task module's services.
type TaskAdapter struct {
	container mono.ServiceContainer
}

var _ TaskPort = (*TaskAdapter)(nil)

func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	return &TaskAdapter{
		container: container,
	}
}

func (a *TaskAdapter) List(ctx context.Context) ([]task.View, error) {
	req := ListTasksRequest{}
	var resp ListTasksResponse
	err := helper.CallRequestReplyService(
		ctx, a.container, "list-tasks", json.Marshal, json.Unmarshal, &req, &resp,
	)
	if err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (a *TaskAdapter) Create(ctx context.Context, req CreateTaskRequest) (MutationResponse, error) {
	var resp MutationResponse
	err := helper.CallRequestReplyService(
		ctx, a.container, "create-task", json.Marshal, json.Unmarshal, &req, &resp,
	)
	return resp, err
}

func (a *TaskAdapter) Update(ctx context.Context, req UpdateTaskRequest) (MutationResponse, error) {
	var resp MutationResponse
	err := helper.CallRequestReplyService(
		ctx, a.container, "update-task", json.Marshal, json.Unmarshal, &req, &resp,
	)
	return resp, err
}

func (a *TaskAdapter) SmartAssign(ctx context.Context, req SmartAssignRequest) (MutationResponse, error) {
	var resp MutationResponse
	err := helper.CallRequestReplyService(
		ctx, a.container, "smart-assign", json.Marshal, json.Unmarshal, &req, &resp,
	)
	return resp, err
}

func (a *TaskAdapter) Delete(ctx context.Context, req DeleteTaskRequest) (DeleteTaskResponse, error) {
	var resp DeleteTaskResponse
	err := helper.CallRequestReplyService(
		ctx, a.container, "delete-task", json.Marshal, json.Unmarshal, &req, &resp,
	)
	return resp, err
}
