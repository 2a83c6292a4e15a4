package task

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	activitydom "github.com/example/taskboard/domain/activity"
	"github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/auth"
)

// UserDirectory is the slice of the auth module the task service needs.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*auth.UserInfo, error)
	ListUsers(ctx context.Context) ([]auth.UserInfo, error)
}

// ActivityRecorder appends entries to the activity log.
type ActivityRecorder interface {
	Append(ctx context.Context, req activity.AppendLogRequest) (*activitydom.LogEntry, error)
}

// EventSink receives board change notifications after a mutation is
// persisted. Implementations must not block.
type EventSink interface {
	TaskChanged(v task.View)
	TaskDeleted(taskID string)
	LogCreated(entry activitydom.LogEntry)
}

// TaskService implements the board mutations. Every successful mutation
// follows the same order: persist, append to the activity log, then
// notify the event sink. A failed log append does not roll back the
// mutation; it is logged and the change event still goes out.
type TaskService struct {
	repo     *TaskRepository
	users    UserDirectory
	recorder ActivityRecorder
	sink     EventSink
}

func NewTaskService(repo *TaskRepository, users UserDirectory, recorder ActivityRecorder, sink EventSink) *TaskService {
	return &TaskService{
		repo:     repo,
		users:    users,
		recorder: recorder,
		sink:     sink,
	}
}

// CreateTaskInput carries the fields for a new task. Status defaults to
// Todo and Priority to Low when left empty.
type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  string
	Status      task.Status
	Priority    task.Priority
	ActorID     string
}

// UpdateTaskInput is a patch: empty string fields keep the stored value.
// ExpectedUpdatedAt is the optimistic-lock token the caller last read.
type UpdateTaskInput struct {
	Title             string
	Description       *string
	AssignedTo        string
	Status            task.Status
	Priority          task.Priority
	ExpectedUpdatedAt time.Time
	ActorID           string
}

func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*task.View, error) {
	title := strings.TrimSpace(in.Title)
	if err := s.validateTitle(ctx, title, ""); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = task.StatusTodo
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	priority := in.Priority
	if priority == "" {
		priority = task.PriorityLow
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	now := time.Now().Truncate(time.Millisecond)
	t := &task.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: in.Description,
		AssignedTo:  in.AssignedTo,
		Status:      status,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	view := s.resolveView(ctx, t)
	s.finishMutation(ctx, view, activitydom.ActionCreated, in.ActorID)
	return &view, nil
}

func (s *TaskService) Update(ctx context.Context, id string, in UpdateTaskInput) (*task.View, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, t, in.ExpectedUpdatedAt); err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); title != "" && title != t.Title {
		if err := s.validateTitle(ctx, title, t.ID); err != nil {
			return nil, err
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.AssignedTo != "" {
		t.AssignedTo = in.AssignedTo
	}
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		t.Status = in.Status
	}
	if in.Priority != "" {
		if !in.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		t.Priority = in.Priority
	}

	t.UpdatedAt = s.nextTimestamp(t.UpdatedAt)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	view := s.resolveView(ctx, t)
	s.finishMutation(ctx, view, activitydom.ActionUpdated, in.ActorID)
	return &view, nil
}

// SmartAssign hands the task to the user with the fewest tasks not yet
// Done. It takes the same optimistic-lock token as Update.
func (s *TaskService) SmartAssign(ctx context.Context, id string, expectedUpdatedAt time.Time) (*task.View, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, t, expectedUpdatedAt); err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(users))
	for _, u := range users {
		c, err := s.repo.CountActive(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		counts[u.ID] = c
	}
	chosen, ok := SelectAssignee(users, counts)
	if !ok {
		return nil, ErrNoUsers
	}

	t.AssignedTo = chosen.ID
	t.UpdatedAt = s.nextTimestamp(t.UpdatedAt)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	view := s.resolveView(ctx, t)
	s.finishMutation(ctx, view, activitydom.ActionSmartAssigned, chosen.ID)
	return &view, nil
}

// Delete removes the task unconditionally, last delete wins. An id that
// is already gone still logs and emits, so racing deleters all converge
// on the same end state; the log entry's task reference simply dangles.
func (s *TaskService) Delete(ctx context.Context, id, actorID string) error {
	title := ""
	if t, err := s.repo.FindByID(ctx, id); err == nil {
		title = t.Title
	} else if !errors.Is(err, ErrTaskNotFound) {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	entry := s.appendLog(ctx, activitydom.ActionDeleted, id, actorID, title)
	s.sink.TaskDeleted(id)
	if entry != nil {
		s.sink.LogCreated(*entry)
	}
	return nil
}

// List returns every task with its assignee resolved.
func (s *TaskService) List(ctx context.Context) ([]task.View, error) {
	tasks, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]task.View, 0, len(tasks))
	assignees := make(map[string]*task.Assignee)
	for i := range tasks {
		t := &tasks[i]
		view := task.View{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		}
		if t.AssignedTo != "" {
			a, seen := assignees[t.AssignedTo]
			if !seen {
				a = s.lookupAssignee(ctx, t.AssignedTo)
				assignees[t.AssignedTo] = a
			}
			view.AssignedTo = a
		}
		views = append(views, view)
	}
	return views, nil
}

// checkConflict compares the caller's token against the stored one at
// millisecond precision. On mismatch it returns a ConflictError carrying
// the current server state so both versions can be shown side by side.
func (s *TaskService) checkConflict(ctx context.Context, t *task.Task, expected time.Time) error {
	if expected.UnixMilli() == t.UpdatedAt.UnixMilli() {
		return nil
	}
	return &ConflictError{Server: s.resolveView(ctx, t)}
}

func (s *TaskService) validateTitle(ctx context.Context, title, excludeID string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if task.IsReservedTitle(title) {
		return ErrReservedTitle
	}
	taken, err := s.repo.TitleTaken(ctx, title, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateTitle
	}
	return nil
}

// nextTimestamp stamps a mutation. Guarding against a wall clock that
// has not ticked past the previous stamp keeps UpdatedAt strictly
// increasing, which the conflict check depends on.
func (s *TaskService) nextTimestamp(prev time.Time) time.Time {
	now := time.Now().Truncate(time.Millisecond)
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

func (s *TaskService) resolveView(ctx context.Context, t *task.Task) task.View {
	view := task.View{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedTo != "" {
		view.AssignedTo = s.lookupAssignee(ctx, t.AssignedTo)
	}
	return view
}

// lookupAssignee resolves a user id to display fields. A dangling id
// (user deleted since assignment) resolves to nil, the task stays valid.
func (s *TaskService) lookupAssignee(ctx context.Context, userID string) *task.Assignee {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		log.Printf("[task] Warning: failed to resolve assignee %s: %v", userID, err)
		return nil
	}
	if u == nil {
		return nil
	}
	return &task.Assignee{ID: u.ID, Username: u.Username, Email: u.Email}
}

// finishMutation runs the post-persist side effects shared by create,
// update and smart-assign. The log is appended before anything is
// broadcast, then the change event goes out ahead of the log event so
// every session sees the task before the entry describing it.
func (s *TaskService) finishMutation(ctx context.Context, view task.View, action activitydom.Action, actorID string) {
	entry := s.appendLog(ctx, action, view.ID, actorID, view.Title)
	s.sink.TaskChanged(view)
	if entry != nil {
		s.sink.LogCreated(*entry)
	}
}

func (s *TaskService) appendLog(ctx context.Context, action activitydom.Action, taskID, userID, title string) *activitydom.LogEntry {
	username := ""
	if userID != "" {
		if u, err := s.users.GetUser(ctx, userID); err == nil && u != nil {
			username = u.Username
		}
	}
	entry, err := s.recorder.Append(ctx, activity.AppendLogRequest{
		Action:    action,
		TaskID:    taskID,
		UserID:    userID,
		TaskTitle: title,
		Username:  username,
	})
	if err != nil {
		log.Printf("[task] Warning: failed to append %s log for task %s: %v", action, taskID, err)
		return nil
	}
	return entry
}
