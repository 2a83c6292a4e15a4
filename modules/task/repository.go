package task

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/taskboard/domain/task"
)

// TaskRepository handles task persistence.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTitle
		}
		return err
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*task.Task, error) {
	var t task.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAll returns every task in creation order.
func (r *TaskRepository) FindAll(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update persists the full current state of t.
func (r *TaskRepository) Update(ctx context.Context, t *task.Task) error {
	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTitle
		}
		return err
	}
	return nil
}

// Delete removes the task with the given id. Deleting an absent task
// is not an error.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&task.Task{}).Error
}

// TitleTaken reports whether another task (excluding excludeID) already
// uses exactly this title. The comparison is case-sensitive.
func (r *TaskRepository) TitleTaken(ctx context.Context, title, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&task.Task{}).Where("title = ?", title)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountActive returns how many tasks not in Done are assigned to userID.
func (r *TaskRepository) CountActive(ctx context.Context, userID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&task.Task{}).
		Where("assigned_to = ? AND status <> ?", userID, task.StatusDone).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
