package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mlops_webapp/dao"
	entity2 "mlops_webapp/entity"
)

// taskStore TaskService 依赖的持久化面，测试里用假实现替换。
type taskStore interface {
	FindByID(ctx context.Context, id string) (*entity2.Task, error)
	TransitionIf(ctx context.Context, id string, from []entity2.TaskStatus, updates map[string]interface{}) (int64, error)
	ReapStuck(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// TaskService 任务队列模型：状态单向推进，终态任务不可再写。
// 任务状态/结果只由外部 worker 回调驱动，面板侧只读。
type TaskService struct {
	taskDAO taskStore
}

func NewTaskService() *TaskService {
	return &TaskService{
		taskDAO: dao.NewTaskDAO(),
	}
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*entity2.Task, error) {
	return s.taskDAO.FindByID(ctx, id)
}

// MarkInProgress QUEUED → IN_PROGRESS。已经 IN_PROGRESS 时幂等成功；
// 终态任务报错且不产生任何写入。
func (s *TaskService) MarkInProgress(ctx context.Context, id string) error {
	task, err := s.taskDAO.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if task.Status == entity2.TaskStatusInProgress {
		return nil
	}
	if task.Status.Terminal() {
		return fmt.Errorf("%w: task %s is already %s", ErrInvalidTaskState, id, task.Status)
	}

	now := time.Now()
	rows, err := s.taskDAO.TransitionIf(ctx, id,
		[]entity2.TaskStatus{entity2.TaskStatusQueued},
		map[string]interface{}{
			"status":     entity2.TaskStatusInProgress,
			"started_at": now,
		})
	if err != nil {
		return err
	}
	if rows == 0 {
		// 条件更新落空：被并发回调抢先，按当前状态重新判定
		current, err := s.taskDAO.FindByID(ctx, id)
		if err == nil && current.Status == entity2.TaskStatusInProgress {
			return nil
		}
		return fmt.Errorf("%w: task %s is no longer QUEUED", ErrInvalidTaskState, id)
	}
	return nil
}

// ReportProgress 运行中任务按 epoch 追加一条指标记录，不改状态。
func (s *TaskService) ReportProgress(ctx context.Context, id string, point entity2.MetricsPoint) error {
	task, err := s.taskDAO.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if task.Status != entity2.TaskStatusInProgress {
		return fmt.Errorf("%w: task %s is %s, progress reports need IN_PROGRESS", ErrInvalidTaskState, id, task.Status)
	}

	var history []entity2.MetricsPoint
	if len(task.MetricsHistory) > 0 {
		if err := json.Unmarshal(task.MetricsHistory, &history); err != nil {
			return fmt.Errorf("decode metrics history failed for task %s: %w", id, err)
		}
	}
	history = append(history, point)
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode metrics history failed for task %s: %w", id, err)
	}

	rows, err := s.taskDAO.TransitionIf(ctx, id,
		[]entity2.TaskStatus{entity2.TaskStatusInProgress},
		map[string]interface{}{
			"metrics_history": json.RawMessage(raw),
		})
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: task %s left IN_PROGRESS before progress was recorded", ErrInvalidTaskState, id)
	}
	return nil
}

// MarkCompleted IN_PROGRESS → COMPLETED，落最终指标与模型产物路径。
func (s *TaskService) MarkCompleted(ctx context.Context, id string, results map[string]float64, modelPath string) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode task results failed: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      entity2.TaskStatusCompleted,
		"results":     json.RawMessage(raw),
		"finished_at": now,
	}
	if modelPath != "" {
		updates["model_path"] = modelPath
	}

	rows, err := s.taskDAO.TransitionIf(ctx, id,
		[]entity2.TaskStatus{entity2.TaskStatusInProgress}, updates)
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.classifyStalledTransition(ctx, id)
	}
	return nil
}

// MarkFailed IN_PROGRESS → FAILED，错误信息原样记录。
// 单个任务失败不影响同实例的其它任务。
func (s *TaskService) MarkFailed(ctx context.Context, id string, errMsg string) error {
	now := time.Now()
	rows, err := s.taskDAO.TransitionIf(ctx, id,
		[]entity2.TaskStatus{entity2.TaskStatusInProgress},
		map[string]interface{}{
			"status":      entity2.TaskStatusFailed,
			"error_msg":   errMsg,
			"finished_at": now,
		})
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.classifyStalledTransition(ctx, id)
	}
	return nil
}

func (s *TaskService) classifyStalledTransition(ctx context.Context, id string) error {
	task, err := s.taskDAO.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: task %s is %s, terminal transition needs IN_PROGRESS", ErrInvalidTaskState, id, task.Status)
}

// ReapStuck 强制失败超时的 IN_PROGRESS 任务，避免实例聚合状态永远卡住。
func (s *TaskService) ReapStuck(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-maxAge)
	reason := fmt.Sprintf("task exceeded max in-progress duration (%s)", maxAge)
	return s.taskDAO.ReapStuck(ctx, cutoff, reason)
}

// StartStuckReaper 启动后台回收循环；maxAge <= 0 时不启动。
func (s *TaskService) StartStuckReaper(ctx context.Context, maxAge, interval time.Duration) {
	if maxAge <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	logger := serviceLogger().With("service", "TaskService", "method", "StartStuckReaper")
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.ReapStuck(ctx, maxAge); err != nil {
					logger.Error("reap stuck tasks failed", "error", err)
				}
			}
		}
	}()
}
