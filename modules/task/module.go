package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	activitydom "github.com/example/taskboard/domain/activity"
	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/events"
	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/auth"
)

// TaskModule provides the task store and the board mutation services.
// It depends on auth for assignee resolution and on activity for the
// log, and emits the board change events the fanout layer consumes.
type TaskModule struct {
	db       *gorm.DB
	repo     *TaskRepository
	service  *TaskService
	eventBus mono.EventBus

	users    UserDirectory
	recorder ActivityRecorder

	dbPath string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*TaskModule)(nil)
	_ mono.ServiceProviderModule = (*TaskModule)(nil)
	_ mono.DependentModule       = (*TaskModule)(nil)
	_ mono.EventBusAwareModule   = (*TaskModule)(nil)
	_ mono.EventEmitterModule    = (*TaskModule)(nil)
	_ mono.HealthCheckableModule = (*TaskModule)(nil)
)

// NewModule creates a new TaskModule.
func NewModule() *TaskModule {
	dbPath := os.Getenv("TASKBOARD_DB_PATH")
	if dbPath == "" {
		dbPath = "taskboard_tasks.db"
	}
	return &TaskModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// Dependencies returns the list of module dependencies.
func (m *TaskModule) Dependencies() []string {
	return []string{"auth", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.users = auth.NewAuthAdapter(container)
	case "activity":
		m.recorder = activity.NewActivityAdapter(container)
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskChangedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
		events.LogCreatedV1.ToBase(),
	}
}

// Start initializes the database connection and the mutation service.
func (m *TaskModule) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&domain.Task{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewTaskRepository(m.db)
	m.service = NewTaskService(m.repo, m.users, m.recorder, &busEventSink{bus: m.eventBus})

	log.Printf("[task] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop gracefully closes the database connection.
func (m *TaskModule) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health performs a health check on the task module.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "smart-assign", json.Unmarshal, json.Marshal, m.handleSmartAssign,
	); err != nil {
		return fmt.Errorf("failed to register smart-assign service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	log.Printf("[task] Registered services: create-task, update-task, smart-assign, delete-task, list-tasks")
	return nil
}

// handleCreate handles the create-task service request.
func (m *TaskModule) handleCreate(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (MutationResponse, error) {
	view, err := m.service.Create(ctx, CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Status:      req.Status,
		Priority:    req.Priority,
		ActorID:     req.ActorID,
	})
	if err != nil {
		return mutationFailure(err)
	}
	return MutationResponse{Task: view}, nil
}

// handleUpdate handles the update-task service request.
func (m *TaskModule) handleUpdate(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (MutationResponse, error) {
	view, err := m.service.Update(ctx, req.TaskID, UpdateTaskInput{
		Title:             req.Title,
		Description:       req.Description,
		AssignedTo:        req.AssignedTo,
		Status:            req.Status,
		Priority:          req.Priority,
		ExpectedUpdatedAt: req.UpdatedAt,
		ActorID:           req.ActorID,
	})
	if err != nil {
		return mutationFailure(err)
	}
	return MutationResponse{Task: view}, nil
}

// handleSmartAssign handles the smart-assign service request.
func (m *TaskModule) handleSmartAssign(ctx context.Context, req SmartAssignRequest, _ *mono.Msg) (MutationResponse, error) {
	view, err := m.service.SmartAssign(ctx, req.TaskID, req.UpdatedAt)
	if err != nil {
		return mutationFailure(err)
	}
	return MutationResponse{Task: view}, nil
}

// handleDelete handles the delete-task service request.
func (m *TaskModule) handleDelete(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.TaskID, req.ActorID); err != nil {
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

// handleList handles the list-tasks service request.
func (m *TaskModule) handleList(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	views, err := m.service.List(ctx)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Tasks: views, Total: len(views)}, nil
}

// mutationFailure maps known service errors onto response fields so
// they survive the trip across the service bus. Unknown errors pass
// through as real errors.
func mutationFailure(err error) (MutationResponse, error) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		server := conflict.Server
		return MutationResponse{Conflict: true, ServerData: &server}, nil
	}
	if errors.Is(err, ErrTaskNotFound) {
		return MutationResponse{ErrorCode: ErrCodeNotFound, ErrorMessage: err.Error()}, nil
	}
	switch {
	case errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrReservedTitle),
		errors.Is(err, ErrDuplicateTitle),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidPriority),
		errors.Is(err, ErrNoUsers):
		return MutationResponse{ErrorCode: ErrCodeValidation, ErrorMessage: err.Error()}, nil
	}
	return MutationResponse{}, err
}

// busEventSink publishes board events on the mono event bus. Publishing
// is best effort, a failed publish is logged and the mutation stands.
type busEventSink struct {
	bus mono.EventBus
}

var _ EventSink = (*busEventSink)(nil)

func (s *busEventSink) TaskChanged(v domain.View) {
	event := events.TaskChangedEvent{Task: v, ChangedAt: time.Now()}
	if err := events.TaskChangedV1.Publish(s.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskChanged for %s: %v", v.ID, err)
	}
}

func (s *busEventSink) TaskDeleted(taskID string) {
	event := events.TaskDeletedEvent{TaskID: taskID, DeletedAt: time.Now()}
	if err := events.TaskDeletedV1.Publish(s.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskDeleted for %s: %v", taskID, err)
	}
}

func (s *busEventSink) LogCreated(entry activitydom.LogEntry) {
	event := events.LogCreatedEvent{Entry: entry}
	if err := events.LogCreatedV1.Publish(s.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish LogCreated %s: %v", entry.ID, err)
	}
}
