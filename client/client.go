package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fasthttp/websocket"
	"golang.org/x/sync/errgroup"

	activitydom "github.com/example/taskboard/domain/activity"
	"github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/broadcast"
)

// ConflictError is returned when a mutation carried a stale updatedAt.
// ServerData holds the server's current task for conflict resolution.
type ConflictError struct {
	ServerData task.View
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("task %s was modified by someone else", e.ServerData.ID)
}

// APIError is any non-conflict error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Session is the identity returned by Login.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Client talks to a board server: REST for reads and mutations, a
// WebSocket for the push channel. It is not safe for concurrent
// mutation of the session (call Login before sharing).
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	dialer  *websocket.Dialer
}

// NewClient creates a client for the server at baseURL
// (e.g. "http://localhost:3000").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		dialer:  websocket.DefaultDialer,
	}
}

// SetToken installs an existing session token.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/api/v1/auth/register", body, nil)
}

// Login starts a session and keeps the token for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body := map[string]string{"username": username, "password": password}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &session); err != nil {
		return nil, err
	}
	c.token = session.Token
	return &session, nil
}

// Tasks fetches the full task list.
func (c *Client) Tasks(ctx context.Context) ([]task.View, error) {
	var tasks []task.View
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Logs fetches the recent activity window, newest first.
func (c *Client) Logs(ctx context.Context) ([]activitydom.LogEntry, error) {
	var entries []activitydom.LogEntry
	if err := c.do(ctx, http.MethodGet, "/api/v1/logs", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Users fetches all users for the assignee picker.
func (c *Client) Users(ctx context.Context) ([]auth.UserInfo, error) {
	var users []auth.UserInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, patch TaskPatch) (*task.View, error) {
	var created task.View
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", patchBody(patch, nil), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask updates a task. expectedUpdatedAt is the updatedAt from
// the caller's last read; a stale value yields a *ConflictError.
func (c *Client) UpdateTask(ctx context.Context, id string, patch TaskPatch, expectedUpdatedAt time.Time) (*task.View, error) {
	var updated task.View
	path := "/api/v1/tasks/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, patchBody(patch, &expectedUpdatedAt), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SmartAssign asks the server to hand the task to the least loaded
// user. Takes the same lock token as UpdateTask.
func (c *Client) SmartAssign(ctx context.Context, id string, expectedUpdatedAt time.Time) (*task.View, error) {
	var updated task.View
	path := "/api/v1/tasks/smart-assign/" + url.PathEscape(id)
	body := map[string]any{"updatedAt": expectedUpdatedAt}
	if err := c.do(ctx, http.MethodPost, path, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	path := "/api/v1/tasks/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Bootstrap fetches tasks and logs concurrently and assembles the
// initial board state.
func (c *Client) Bootstrap(ctx context.Context) (BoardState, error) {
	var state BoardState
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := c.Tasks(ctx)
		if err != nil {
			return err
		}
		state.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		logs, err := c.Logs(ctx)
		if err != nil {
			return err
		}
		state.Logs = logs
		return nil
	})
	if err := g.Wait(); err != nil {
		return BoardState{}, err
	}
	return state, nil
}

// Connect opens the push channel. Events arrive on the returned channel
// until the context is cancelled or the connection drops; the channel
// is closed either way.
func (c *Client) Connect(ctx context.Context) (<-chan broadcast.WSBroadcast, error) {
	if c.token == "" {
		return nil, fmt.Errorf("login required before connecting")
	}

	wsURL, err := c.websocketURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}

	events := make(chan broadcast.WSBroadcast, 64)
	done := make(chan struct{})
	go func() {
		defer close(events)
		defer close(done)
		defer conn.Close()
		for {
			var event broadcast.WSBroadcast
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	go closeOnDone(ctx, done, conn)

	return events, nil
}

// closeOnDone unblocks the read loop by closing the connection when the
// context is cancelled. A closed done channel means the reader already
// finished, so the watcher must exit instead of waiting on a context
// that may stay live for the rest of the process.
func closeOnDone(ctx context.Context, done <-chan struct{}, conn io.Closer) {
	select {
	case <-ctx.Done():
		_ = conn.Close()
	case <-done:
	}
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()
	return u.String(), nil
}

// patchBody builds the JSON body for create and update calls.
func patchBody(patch TaskPatch, expectedUpdatedAt *time.Time) map[string]any {
	body := map[string]any{
		"title":      patch.Title,
		"assignedTo": patch.AssignedTo,
		"status":     patch.Status,
		"priority":   patch.Priority,
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if expectedUpdatedAt != nil {
		body["updatedAt"] = *expectedUpdatedAt
	}
	return body
}

// do runs one REST call. 409 responses come back as *ConflictError,
// other failures as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)

		// A 409 on a task mutation carries the server's current state.
		// A 409 on register is an ordinary error body.
		if resp.StatusCode == http.StatusConflict {
			var conflict struct {
				Conflict   bool      `json:"conflict"`
				ServerData task.View `json:"serverData"`
			}
			if err := json.Unmarshal(data, &conflict); err == nil && conflict.Conflict {
				return &ConflictError{ServerData: conflict.ServerData}
			}
		}

		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = "request_failed"
		}
		return &APIError{StatusCode: resp.StatusCode, Code: apiErr.Error, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
