package activity

import (
	"fmt"

	domain "github.com/example/taskboard/domain/activity"
	"gorm.io/gorm"
)

// LogRepository provides access to the append-only activity log.
type LogRepository struct {
	db *gorm.DB
}

// NewLogRepository creates a new LogRepository.
func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Append inserts a new log entry. Entries are never updated or deleted
// afterwards.
func (r *LogRepository) Append(entry *domain.LogEntry) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

// FindRecent returns the most recent entries, newest first.
func (r *LogRepository) FindRecent(limit int) ([]*domain.LogEntry, error) {
	var entries []*domain.LogEntry
	if err := r.db.Order("timestamp desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to find log entries: %w", err)
	}
	return entries, nil
}
