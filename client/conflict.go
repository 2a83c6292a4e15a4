package client

import (
	"fmt"
	"time"

	"github.com/example/taskboard/domain/task"
)

// Choice is what the user picked when a mutation came back 409.
type Choice int

const (
	// ChoiceMine resubmits the local edit over the server's version.
	ChoiceMine Choice = iota
	// ChoiceServer accepts the server's version and drops the local edit.
	ChoiceServer
	// ChoiceMerged resubmits a manually merged record.
	ChoiceMerged
)

// TaskPatch carries the editable task fields for an update.
type TaskPatch struct {
	Title       string
	Description *string
	AssignedTo  string
	Status      task.Status
	Priority    task.Priority
}

// patchFrom lifts a server snapshot into a full patch.
func patchFrom(v task.View) TaskPatch {
	desc := v.Description
	assignedTo := ""
	if v.AssignedTo != nil {
		assignedTo = v.AssignedTo.ID
	}
	return TaskPatch{
		Title:       v.Title,
		Description: &desc,
		AssignedTo:  assignedTo,
		Status:      v.Status,
		Priority:    v.Priority,
	}
}

// Resolution is the outcome of resolving a conflict. When Resubmit is
// set the patch must go back through UpdateTask with Token as the
// expected updatedAt; nothing is persisted by the resolution itself.
// Token is the server's current updatedAt, so the resubmission wins
// unless a third writer got there in between.
type Resolution struct {
	Patch    TaskPatch
	Token    time.Time
	Resubmit bool
}

// ResolveConflict turns the user's choice into a resolution. For
// ChoiceMerged the caller supplies the merged record; for ChoiceServer
// no resubmission is needed, the server state is already the truth and
// only the local copy needs replacing.
func ResolveConflict(choice Choice, mine TaskPatch, server task.View, merged *TaskPatch) (Resolution, error) {
	switch choice {
	case ChoiceMine:
		return Resolution{Patch: mine, Token: server.UpdatedAt, Resubmit: true}, nil
	case ChoiceServer:
		return Resolution{Patch: patchFrom(server), Token: server.UpdatedAt, Resubmit: false}, nil
	case ChoiceMerged:
		if merged == nil {
			return Resolution{}, fmt.Errorf("merged record is required for ChoiceMerged")
		}
		return Resolution{Patch: *merged, Token: server.UpdatedAt, Resubmit: true}, nil
	}
	return Resolution{}, fmt.Errorf("unknown conflict choice %d", choice)
}
