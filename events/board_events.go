package events

import (
	"time"

	"github.com/example/taskboard/domain/activity"
	"github.com/example/taskboard/domain/task"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskChangedEvent is emitted after a task is created or mutated. It
// carries the full persisted task with the assignee resolved, so
// consumers never have to read back from the store.
type TaskChangedEvent struct {
	Task      task.View `json:"task"`
	ChangedAt time.Time `json:"changed_at"`
}

// TaskChangedV1 is the typed event definition for task changes.
// Subject: events.board.v1.task-changed
var TaskChangedV1 = helper.EventDefinition[TaskChangedEvent](
	"board", "TaskChanged", "v1",
)

// TaskDeletedEvent is emitted after a task is removed. Only the
// identifier survives the delete.
type TaskDeletedEvent struct {
	TaskID    string    `json:"task_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.board.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"board", "TaskDeleted", "v1",
)

// LogCreatedEvent is emitted after an activity log entry is appended.
type LogCreatedEvent struct {
	Entry activity.LogEntry `json:"entry"`
}

// LogCreatedV1 is the typed event definition for log appends.
// Subject: events.board.v1.log-created
var LogCreatedV1 = helper.EventDefinition[LogCreatedEvent](
	"board", "LogCreated", "v1",
)
