package client

import (
	activitydom "github.com/example/taskboard/domain/activity"
	"github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/broadcast"
)

// BoardState is a client-side snapshot of the board: the task list and
// the bounded activity window.
type BoardState struct {
	Tasks []task.View
	Logs  []activitydom.LogEntry
}

// Reduce applies one push event to a board state and returns the next
// state. It never mutates its input, so callers can keep old snapshots.
//
// Reconciliation rules:
//   - task-updated replaces the task with the matching id, or appends
//     when the id is unknown (covers create-before-initial-fetch races).
//   - task-deleted removes the matching task; absent ids are a no-op.
//   - log-created prepends and truncates to the most recent window.
func Reduce(state BoardState, event broadcast.WSBroadcast) BoardState {
	switch event.Type {
	case broadcast.MessageTaskUpdated:
		if event.Task == nil {
			return state
		}
		return BoardState{
			Tasks: upsertTask(state.Tasks, *event.Task),
			Logs:  state.Logs,
		}
	case broadcast.MessageTaskDeleted:
		if event.TaskID == "" {
			return state
		}
		return BoardState{
			Tasks: removeTask(state.Tasks, event.TaskID),
			Logs:  state.Logs,
		}
	case broadcast.MessageLogCreated:
		if event.Log == nil {
			return state
		}
		return BoardState{
			Tasks: state.Tasks,
			Logs:  prependLog(state.Logs, *event.Log),
		}
	}
	return state
}

func upsertTask(tasks []task.View, next task.View) []task.View {
	out := make([]task.View, len(tasks), len(tasks)+1)
	copy(out, tasks)
	for i := range out {
		if out[i].ID == next.ID {
			out[i] = next
			return out
		}
	}
	return append(out, next)
}

func removeTask(tasks []task.View, id string) []task.View {
	out := make([]task.View, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func prependLog(logs []activitydom.LogEntry, entry activitydom.LogEntry) []activitydom.LogEntry {
	out := make([]activitydom.LogEntry, 0, len(logs)+1)
	out = append(out, entry)
	out = append(out, logs...)
	if len(out) > activity.DefaultRecentLimit {
		out = out[:activity.DefaultRecentLimit]
	}
	return out
}
