package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	activitydom "github.com/example/taskboard/domain/activity"
	tasks "github.com/example/taskboard/domain/task"
	user "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/broadcast"
	"github.com/example/taskboard/modules/task"
)

const testToken = "session-token"

type fakeAuthPort struct {
	registerResp  auth.RegisterResponse
	loginResp     auth.LoginResponse
	users         []auth.UserInfo
	failListUsers bool
}

func (f *fakeAuthPort) Register(_ context.Context, _ auth.RegisterRequest) (auth.RegisterResponse, error) {
	return f.registerResp, nil
}

func (f *fakeAuthPort) Login(_ context.Context, _ auth.LoginRequest) (auth.LoginResponse, error) {
	return f.loginResp, nil
}

func (f *fakeAuthPort) VerifyToken(_ context.Context, token string) (*user.Claims, error) {
	if token != testToken {
		return nil, errors.New("invalid token")
	}
	return &user.Claims{UserID: "u1", Username: "alice"}, nil
}

func (f *fakeAuthPort) GetUser(_ context.Context, userID string) (*auth.UserInfo, error) {
	for _, u := range f.users {
		if u.ID == userID {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthPort) ListUsers(_ context.Context) ([]auth.UserInfo, error) {
	if f.failListUsers {
		return nil, errors.New("auth unavailable")
	}
	return f.users, nil
}

type fakeTaskPort struct {
	listResp     []tasks.View
	mutationResp task.MutationResponse
	deleteResp   task.DeleteTaskResponse

	lastCreate task.CreateTaskRequest
	lastUpdate task.UpdateTaskRequest
	lastDelete task.DeleteTaskRequest
}

func (f *fakeTaskPort) List(_ context.Context) ([]tasks.View, error) {
	return f.listResp, nil
}

func (f *fakeTaskPort) Create(_ context.Context, req task.CreateTaskRequest) (task.MutationResponse, error) {
	f.lastCreate = req
	return f.mutationResp, nil
}

func (f *fakeTaskPort) Update(_ context.Context, req task.UpdateTaskRequest) (task.MutationResponse, error) {
	f.lastUpdate = req
	return f.mutationResp, nil
}

func (f *fakeTaskPort) SmartAssign(_ context.Context, _ task.SmartAssignRequest) (task.MutationResponse, error) {
	return f.mutationResp, nil
}

func (f *fakeTaskPort) Delete(_ context.Context, req task.DeleteTaskRequest) (task.DeleteTaskResponse, error) {
	f.lastDelete = req
	return f.deleteResp, nil
}

type fakeActivityPort struct {
	entries []activitydom.LogEntry
}

func (f *fakeActivityPort) Append(_ context.Context, req activity.AppendLogRequest) (*activitydom.LogEntry, error) {
	entry := activitydom.LogEntry{Action: req.Action, TaskID: req.TaskID}
	f.entries = append(f.entries, entry)
	return &entry, nil
}

func (f *fakeActivityPort) Recent(_ context.Context, limit int) ([]activitydom.LogEntry, error) {
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return f.entries[:limit], nil
}

type apiFixture struct {
	module   *APIModule
	auth     *fakeAuthPort
	tasks    *fakeTaskPort
	activity *fakeActivityPort
}

func setupTestAPI(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{
		auth:     &fakeAuthPort{},
		tasks:    &fakeTaskPort{},
		activity: &fakeActivityPort{},
	}
	m := NewModule()
	m.authAdapter = f.auth
	m.taskAdapter = f.tasks
	m.activityAdapter = f.activity
	m.hub = broadcast.NewHub()
	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})
	m.setupRoutes()
	f.module = m
	return f
}

func doRequest(t *testing.T, f *apiFixture, method, path string, body any, authed bool) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}

	resp, err := f.module.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestRegisterEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		resp       auth.RegisterResponse
		wantStatus int
	}{
		{"success", auth.RegisterResponse{ID: "u1", Username: "alice"}, fiber.StatusCreated},
		{"duplicate", auth.RegisterResponse{ErrorCode: auth.ErrCodeUserExists, ErrorMessage: "username already registered"}, fiber.StatusConflict},
		{"weak password", auth.RegisterResponse{ErrorCode: auth.ErrCodeValidation, ErrorMessage: "password must be at least 8 characters"}, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestAPI(t)
			f.auth.registerResp = tt.resp

			resp := doRequest(t, f, fiber.MethodPost, "/api/v1/auth/register", RegisterRequest{
				Username: "alice", Email: "alice@example.com", Password: "secretpass",
			}, false)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("success returns the session", func(t *testing.T) {
		f := setupTestAPI(t)
		f.auth.loginResp = auth.LoginResponse{
			Token: "tok", UserID: "u1", Username: "alice", Email: "alice@example.com",
		}

		resp := doRequest(t, f, fiber.MethodPost, "/api/v1/auth/login", LoginRequest{
			Username: "alice", Password: "secretpass",
		}, false)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decodeBody[LoginResponse](t, resp)
		if body.Token != "tok" || body.UserID != "u1" {
			t.Errorf("unexpected login body: %+v", body)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		f := setupTestAPI(t)
		f.auth.loginResp = auth.LoginResponse{ErrorCode: auth.ErrCodeUserNotFound, ErrorMessage: "user not found"}

		resp := doRequest(t, f, fiber.MethodPost, "/api/v1/auth/login", LoginRequest{Username: "ghost"}, false)
		if resp.StatusCode != fiber.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		f := setupTestAPI(t)
		f.auth.loginResp = auth.LoginResponse{ErrorCode: auth.ErrCodeInvalidCredentials, ErrorMessage: "invalid password"}

		resp := doRequest(t, f, fiber.MethodPost, "/api/v1/auth/login", LoginRequest{Username: "alice"}, false)
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestBoardRoutesRequireAuth(t *testing.T) {
	f := setupTestAPI(t)

	paths := []struct {
		method string
		path   string
	}{
		{fiber.MethodGet, "/api/v1/tasks"},
		{fiber.MethodPost, "/api/v1/tasks"},
		{fiber.MethodPut, "/api/v1/tasks/t1"},
		{fiber.MethodDelete, "/api/v1/tasks/t1"},
		{fiber.MethodGet, "/api/v1/logs"},
		{fiber.MethodGet, "/api/v1/users"},
	}
	for _, p := range paths {
		resp := doRequest(t, f, p.method, p.path, nil, false)
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", p.method, p.path, resp.StatusCode)
		}
	}
}

func TestListTasksEndpoint(t *testing.T) {
	f := setupTestAPI(t)
	f.tasks.listResp = []tasks.View{
		{ID: "t1", Title: "First", Status: tasks.StatusTodo},
		{ID: "t2", Title: "Second", Status: tasks.StatusDone},
	}

	resp := doRequest(t, f, fiber.MethodGet, "/api/v1/tasks", nil, true)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody[[]tasks.View](t, resp)
	if len(body) != 2 || body[0].ID != "t1" {
		t.Errorf("unexpected task list: %+v", body)
	}
}

func TestCreateTaskEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := setupTestAPI(t)
		f.tasks.mutationResp = task.MutationResponse{
			Task: &tasks.View{ID: "t1", Title: "New", Status: tasks.StatusTodo},
		}

		resp := doRequest(t, f, fiber.MethodPost, "/api/v1/tasks", CreateTaskRequest{Title: "New"}, true)
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		body := decodeBody[tasks.View](t, resp)
		if body.ID != "t1" {
			t.Errorf("unexpected task: %+v", body)
		}
		// Without an assignee the caller is the logged actor.
		if f.tasks.lastCreate.ActorID != "u1" {
			t.Errorf("expected actor u1, got %q", f.tasks.lastCreate.ActorID)
		}
	})

	t.Run("validation error", func(t *testing.T) {
		f := setupTestAPI(t)
		f.tasks.mutationResp = task.MutationResponse{
			ErrorCode:    task.ErrCodeValidation,
			ErrorMessage: "task title must not match a column name",
		}

		resp := doRequest(t, f, fiber.MethodPost, "/api/v1/tasks", CreateTaskRequest{Title: "Todo"}, true)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestUpdateTaskEndpoint(t *testing.T) {
	t.Run("conflict carries server data", func(t *testing.T) {
		f := setupTestAPI(t)
		server := tasks.View{ID: "t1", Title: "Server version", Status: tasks.StatusInProgress, UpdatedAt: time.Now()}
		f.tasks.mutationResp = task.MutationResponse{Conflict: true, ServerData: &server}

		resp := doRequest(t, f, fiber.MethodPut, "/api/v1/tasks/t1", UpdateTaskRequest{
			Status:    tasks.StatusDone,
			UpdatedAt: time.Now().Add(-time.Minute),
		}, true)
		if resp.StatusCode != fiber.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
		body := decodeBody[ConflictResponse](t, resp)
		if !body.Conflict {
			t.Error("expected conflict flag set")
		}
		if body.ServerData.ID != "t1" || body.ServerData.Title != "Server version" {
			t.Errorf("unexpected server data: %+v", body.ServerData)
		}
	})

	t.Run("not found", func(t *testing.T) {
		f := setupTestAPI(t)
		f.tasks.mutationResp = task.MutationResponse{ErrorCode: task.ErrCodeNotFound, ErrorMessage: "task not found"}

		resp := doRequest(t, f, fiber.MethodPut, "/api/v1/tasks/missing", UpdateTaskRequest{UpdatedAt: time.Now()}, true)
		if resp.StatusCode != fiber.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("ok", func(t *testing.T) {
		f := setupTestAPI(t)
		f.tasks.mutationResp = task.MutationResponse{
			Task: &tasks.View{ID: "t1", Status: tasks.StatusDone},
		}

		resp := doRequest(t, f, fiber.MethodPut, "/api/v1/tasks/t1", UpdateTaskRequest{
			Status:    tasks.StatusDone,
			UpdatedAt: time.Now(),
		}, true)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if f.tasks.lastUpdate.TaskID != "t1" {
			t.Errorf("expected task id t1, got %q", f.tasks.lastUpdate.TaskID)
		}
	})
}

func TestSmartAssignEndpoint(t *testing.T) {
	f := setupTestAPI(t)
	assignee := tasks.Assignee{ID: "u2", Username: "bob"}
	f.tasks.mutationResp = task.MutationResponse{
		Task: &tasks.View{ID: "t1", AssignedTo: &assignee},
	}

	resp := doRequest(t, f, fiber.MethodPost, "/api/v1/tasks/smart-assign/t1", SmartAssignRequest{
		UpdatedAt: time.Now(),
	}, true)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody[tasks.View](t, resp)
	if body.AssignedTo == nil || body.AssignedTo.ID != "u2" {
		t.Errorf("expected assignee u2, got %+v", body.AssignedTo)
	}
}

func TestDeleteTaskEndpoint(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		f := setupTestAPI(t)
		f.tasks.deleteResp = task.DeleteTaskResponse{Deleted: true}

		resp := doRequest(t, f, fiber.MethodDelete, "/api/v1/tasks/t1", nil, true)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decodeBody[MessageResponse](t, resp)
		if body.Message != "Task deleted" {
			t.Errorf("unexpected message %q", body.Message)
		}
		if f.tasks.lastDelete.ActorID != "u1" {
			t.Errorf("expected actor u1, got %q", f.tasks.lastDelete.ActorID)
		}
	})

	t.Run("unknown id still returns 200", func(t *testing.T) {
		f := setupTestAPI(t)
		f.tasks.deleteResp = task.DeleteTaskResponse{Deleted: true}

		resp := doRequest(t, f, fiber.MethodDelete, "/api/v1/tasks/missing", nil, true)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decodeBody[MessageResponse](t, resp)
		if body.Message != "Task deleted" {
			t.Errorf("unexpected message %q", body.Message)
		}
		if f.tasks.lastDelete.TaskID != "missing" {
			t.Errorf("expected delete request for missing, got %q", f.tasks.lastDelete.TaskID)
		}
	})
}

func TestGetLogsEndpoint(t *testing.T) {
	f := setupTestAPI(t)
	for i := 0; i < 25; i++ {
		f.activity.entries = append(f.activity.entries, activitydom.LogEntry{
			ID:     "log",
			Action: activitydom.ActionCreated,
		})
	}

	resp := doRequest(t, f, fiber.MethodGet, "/api/v1/logs", nil, true)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody[[]activitydom.LogEntry](t, resp)
	if len(body) != activity.DefaultRecentLimit {
		t.Errorf("expected %d entries, got %d", activity.DefaultRecentLimit, len(body))
	}
}

func TestGetUsersEndpoint(t *testing.T) {
	f := setupTestAPI(t)
	f.auth.users = []auth.UserInfo{
		{ID: "u1", Username: "alice", Email: "alice@example.com"},
		{ID: "u2", Username: "bob", Email: "bob@example.com"},
	}

	resp := doRequest(t, f, fiber.MethodGet, "/api/v1/users", nil, true)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody[[]auth.UserInfo](t, resp)
	if len(body) != 2 || body[0].Username != "alice" {
		t.Errorf("unexpected users: %+v", body)
	}
}

func TestHealthEndpoint(t *testing.T) {
	f := setupTestAPI(t)

	resp := doRequest(t, f, fiber.MethodGet, "/health", nil, false)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody[HealthResponse](t, resp)
	if body.Status != "healthy" {
		t.Errorf("expected healthy, got %q", body.Status)
	}
}
