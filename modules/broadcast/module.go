package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/taskboard/domain/activity"
	"github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/events"
)

// Wire message types pushed to board clients.
const (
	MessageTaskUpdated = "task-updated"
	MessageTaskDeleted = "task-deleted"
	MessageLogCreated  = "log-created"
)

// WSBroadcast is the envelope sent to WebSocket clients.
type WSBroadcast struct {
	Type   string             `json:"type"`
	Task   *task.View         `json:"task,omitempty"`
	TaskID string             `json:"taskId,omitempty"`
	Log    *activity.LogEntry `json:"log,omitempty"`
}

// BroadcastModule consumes board events and fans them out to every
// connected WebSocket client.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule() *BroadcastModule {
	return &BroadcastModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module and starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the module.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait() // Wait for hub to finish
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskChangedV1, m.handleTaskChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register TaskChanged consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskDeletedV1, m.handleTaskDeleted, m,
	); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.LogCreatedV1, m.handleLogCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register LogCreated consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: TaskChanged, TaskDeleted, LogCreated")
	return nil
}

func (m *BroadcastModule) handleTaskChanged(_ context.Context, event events.TaskChangedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Broadcasting task update %s", event.Task.ID)

	t := event.Task
	m.hub.Broadcast(WSBroadcast{
		Type: MessageTaskUpdated,
		Task: &t,
	})
	return nil
}

func (m *BroadcastModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Broadcasting task deletion %s", event.TaskID)

	m.hub.Broadcast(WSBroadcast{
		Type:   MessageTaskDeleted,
		TaskID: event.TaskID,
	})
	return nil
}

func (m *BroadcastModule) handleLogCreated(_ context.Context, event events.LogCreatedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Broadcasting log entry %s (%s)", event.Entry.ID, event.Entry.Action)

	entry := event.Entry
	m.hub.Broadcast(WSBroadcast{
		Type: MessageLogCreated,
		Log:  &entry,
	})
	return nil
}

// GetHub returns the WebSocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}
