package task

import (
	"strings"
	"time"
)

// Status identifies the board column a task sits in.
type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Valid reports whether s is one of the known board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a board task. UpdatedAt doubles as the optimistic-lock
// token: every successful mutation stamps a fresh millisecond timestamp,
// and writers must present the value they last read.
type Task struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	Title       string    `gorm:"uniqueIndex;not null;type:text" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	AssignedTo  string    `gorm:"index;type:text" json:"assignedTo"`
	Status      Status    `gorm:"not null;type:text" json:"status"`
	Priority    Priority  `gorm:"not null;type:text" json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// IsReservedTitle reports whether the given title collides with a board
// column name. The check is case-insensitive so "todo" and "Todo" are
// equally rejected.
func IsReservedTitle(title string) bool {
	switch strings.ToLower(strings.TrimSpace(title)) {
	case "todo", "in progress", "done":
		return true
	}
	return false
}
