package task

import (
	"errors"
	"fmt"

	"github.com/example/taskboard/domain/task"
)

var (
	// ErrTaskNotFound is returned when the requested task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTitleRequired is returned when a create or update carries an
	// empty title after trimming.
	ErrTitleRequired = errors.New("task title is required")

	// ErrReservedTitle is returned when the title matches a column name.
	ErrReservedTitle = errors.New("task title must not match a column name")

	// ErrDuplicateTitle is returned when another task already uses the title.
	ErrDuplicateTitle = errors.New("task title already in use")

	// ErrInvalidStatus is returned for a status outside Todo/In Progress/Done.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidPriority is returned for a priority outside Low/Medium/High.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrNoUsers is returned by smart-assign when no users are registered.
	ErrNoUsers = errors.New("no users available for assignment")
)

// ConflictError signals that a mutation carried a stale updatedAt token.
// Server holds the current persisted state so the caller can present
// both versions for resolution.
type ConflictError struct {
	Server task.View
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("task %s was modified by someone else", e.Server.ID)
}

// AsConflict unwraps err into a *ConflictError if it is one.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
