package dao

import (
	"context"
	"fmt"
	entity2 "mlops_webapp/entity"
	"mlops_webapp/infrastructure/db"
	"time"

	"gorm.io/gorm"
)

type TaskDAO struct {
	DB *gorm.DB
}

func NewTaskDAO() *TaskDAO {
	return &TaskDAO{
		DB: db.DB,
	}
}

func (d *TaskDAO) FindByID(ctx context.Context, id string) (*entity2.Task, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find task by id failed: %w", err)
	}

	var task entity2.Task
	err = dbConn.First(&task, "id = ?", id).Error
	return &task, err
}

// FindByInstanceID 按队列位置升序返回实例内全部任务。
// 队列位置只保证展示/提交顺序，不保证完成顺序。
func (d *TaskDAO) FindByInstanceID(ctx context.Context, instanceID uint) ([]entity2.Task, error) {
	if instanceID == 0 {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find tasks by instance failed: %w", err)
	}

	var tasks []entity2.Task
	err = dbConn.
		Where("instance_id = ?", instanceID).
		Order("queue_position ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("find tasks by instance failed: %w", err)
	}
	return tasks, nil
}

// TransitionIf 带乐观检查的状态推进：仅当任务当前状态在 from 中才写入。
// updates 携带随状态一起落库的字段（结果、错误、时间戳）。
// 返回生效行数，0 行表示前置状态不满足（含任务已终态的情况）。
func (d *TaskDAO) TransitionIf(ctx context.Context, id string, from []entity2.TaskStatus, updates map[string]interface{}) (int64, error) {
	logger := daoLogger().With("dao", "TaskDAO", "method", "TransitionIf")
	if id == "" {
		return 0, ErrInvalidID
	}
	if len(from) == 0 {
		return 0, fmt.Errorf("transition task failed: empty precondition set")
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return 0, fmt.Errorf("transition task failed: %w", err)
	}

	result := dbConn.Model(&entity2.Task{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		logger.Error("transition task failed", "id", id, "error", result.Error)
		return 0, fmt.Errorf("transition task failed: %w", result.Error)
	}
	logger.Info("task transition", "id", id, "rows", result.RowsAffected, "updates", len(updates))
	return result.RowsAffected, nil
}

// ReapStuck 把开始时间早于 cutoff 且仍 IN_PROGRESS 的任务强制置为 FAILED。
func (d *TaskDAO) ReapStuck(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	logger := daoLogger().With("dao", "TaskDAO", "method", "ReapStuck")

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return 0, fmt.Errorf("reap stuck tasks failed: %w", err)
	}

	now := time.Now()
	result := dbConn.Model(&entity2.Task{}).
		Where("status = ? AND started_at IS NOT NULL AND started_at < ?", entity2.TaskStatusInProgress, cutoff).
		Updates(map[string]interface{}{
			"status":      entity2.TaskStatusFailed,
			"error_msg":   reason,
			"finished_at": now,
		})
	if result.Error != nil {
		logger.Error("reap stuck tasks failed", "error", result.Error)
		return 0, fmt.Errorf("reap stuck tasks failed: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		logger.Warn("stuck tasks reaped", "count", result.RowsAffected, "cutoff", cutoff)
	}
	return result.RowsAffected, nil
}
