package activity

import (
	domain "github.com/example/taskboard/domain/activity"
)

// AppendLogRequest asks for one action to be recorded. TaskTitle and
// Username are display snapshots captured by the caller at mutation
// time, so the entry stays readable after the task or user is gone.
type AppendLogRequest struct {
	Action    domain.Action `json:"action"`
	TaskID    string        `json:"task_id"`
	UserID    string        `json:"user_id,omitempty"`
	TaskTitle string        `json:"task_title"`
	Username  string        `json:"username,omitempty"`
}

// AppendLogResponse carries the persisted entry with its assigned ID
// and timestamp.
type AppendLogResponse struct {
	Entry domain.LogEntry `json:"entry"`
}

// RecentLogsRequest asks for the most recent entries. A zero Limit
// falls back to the default window.
type RecentLogsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// RecentLogsResponse carries recent entries, newest first.
type RecentLogsResponse struct {
	Entries []domain.LogEntry `json:"entries"`
}
