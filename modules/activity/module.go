package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	domain "github.com/example/taskboard/domain/activity"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultRecentLimit is the size of the activity window served to
// clients.
const DefaultRecentLimit = 20

// ActivityModule provides the append-only activity log store.
type ActivityModule struct {
	db     *gorm.DB
	repo   *LogRepository
	dbPath string
}

// Compile-time interface checks.
var _ mono.Module = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)
var _ mono.HealthCheckableModule = (*ActivityModule)(nil)

// NewModule creates a new ActivityModule.
func NewModule() *ActivityModule {
	dbPath := os.Getenv("ACTIVITY_DB_PATH")
	if dbPath == "" {
		dbPath = "taskboard_activity.db"
	}
	return &ActivityModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *ActivityModule) Name() string {
	return "activity"
}

// Start initializes the database connection and runs migrations.
func (m *ActivityModule) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&domain.LogEntry{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewLogRepository(m.db)

	log.Printf("[activity] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop gracefully closes the database connection.
func (m *ActivityModule) Stop(_ context.Context) error {
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
	log.Println("[activity] Module stopped")
	return nil
}

// Health performs a health check on the activity module.
func (m *ActivityModule) Health(ctx context.Context) mono.HealthStatus {
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
func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "append-log", json.Unmarshal, json.Marshal, m.appendLog,
	); err != nil {
		return fmt.Errorf("failed to register append-log service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "recent-logs", json.Unmarshal, json.Marshal, m.recentLogs,
	); err != nil {
		return fmt.Errorf("failed to register recent-logs service: %w", err)
	}

	log.Printf("[activity] Registered services: append-log, recent-logs")
	return nil
}

// appendLog handles the append-log service request.
func (m *ActivityModule) appendLog(_ context.Context, req AppendLogRequest, _ *mono.Msg) (AppendLogResponse, error) {
	entry := &domain.LogEntry{
		ID:        uuid.New().String(),
		Action:    req.Action,
		TaskID:    req.TaskID,
		UserID:    req.UserID,
		TaskTitle: req.TaskTitle,
		Username:  req.Username,
		Timestamp: time.Now(),
	}

	if err := m.repo.Append(entry); err != nil {
		return AppendLogResponse{}, err
	}

	return AppendLogResponse{Entry: *entry}, nil
}

// recentLogs handles the recent-logs service request.
func (m *ActivityModule) recentLogs(_ context.Context, req RecentLogsRequest, _ *mono.Msg) (RecentLogsResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	entries, err := m.repo.FindRecent(limit)
	if err != nil {
		return RecentLogsResponse{}, err
	}

	resp := RecentLogsResponse{
		Entries: make([]domain.LogEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, *e)
	}
	return resp, nil
}
