package activity

import "time"

// Action names what happened to a task.
type Action string

const (
	ActionCreated       Action = "created"
	ActionUpdated       Action = "updated"
	ActionDeleted       Action = "deleted"
	ActionSmartAssigned Action = "smart-assigned"
)

// LogEntry is one append-only record of an action taken on a task.
// Entries are never mutated after creation. TaskID and UserID are weak
// references that may dangle once the task or user is deleted, so the
// display fields are captured at append time.
type LogEntry struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Action    Action    `gorm:"not null;type:text" json:"action"`
	TaskID    string    `gorm:"index;type:text" json:"taskId"`
	UserID    string    `gorm:"type:text" json:"userId,omitempty"`
	TaskTitle string    `gorm:"type:text" json:"taskTitle"`
	Username  string    `gorm:"type:text" json:"username,omitempty"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}

// TableName returns the table name for the LogEntry entity.
func (LogEntry) TableName() string {
	return "log_entries"
}
