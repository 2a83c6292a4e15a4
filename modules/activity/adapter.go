package activity

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/taskboard/domain/activity"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityPort defines the interface other modules use to record and
// read board activity.
type ActivityPort interface {
	Append(ctx context.Context, req AppendLogRequest) (*domain.LogEntry, error)
	Recent(ctx context.Context, limit int) ([]domain.LogEntry, error)
}

// ActivityAdapter implements ActivityPort using the service container.
type ActivityAdapter struct {
	container mono.ServiceContainer
}

var _ ActivityPort = (*ActivityAdapter)(nil)

// NewActivityAdapter creates a new ActivityAdapter.
func NewActivityAdapter(container mono.ServiceContainer) *ActivityAdapter {
	return &ActivityAdapter{
		container: container,
	}
}

// Append records one action and returns the persisted entry.
func (a *ActivityAdapter) Append(ctx context.Context, req AppendLogRequest) (*domain.LogEntry, error) {
	var resp AppendLogResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"append-log",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("append-log request failed: %w", err)
	}

	return &resp.Entry, nil
}

// Recent returns the most recent entries, newest first.
func (a *ActivityAdapter) Recent(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	req := RecentLogsRequest{Limit: limit}
	var resp RecentLogsResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"recent-logs",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("recent-logs request failed: %w", err)
	}

	return resp.Entries, nil
}
