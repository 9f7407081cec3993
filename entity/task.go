package entity

import (
	"encoding/json"
	"time"
)

// TaskStatus 任务队列状态，单向推进：QUEUED → IN_PROGRESS → COMPLETED/FAILED
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "QUEUED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// Terminal reports whether the status is final. Terminal tasks are immutable.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// TaskKind 区分训练任务与测试任务；队列语义两者一致
type TaskKind string

const (
	TaskKindTraining TaskKind = "training"
	TaskKindTesting  TaskKind = "testing"
)

type Task struct {
	ID            string          `gorm:"primaryKey;column:id;size:36" json:"id"`
	InstanceID    uint            `gorm:"column:instance_id;index" json:"instance_id"`
	DatasetID     uint            `gorm:"column:dataset_id;index" json:"dataset_id"`
	Kind          TaskKind        `gorm:"column:kind" json:"kind"`
	QueuePosition int             `gorm:"column:queue_position" json:"queue_position"` // 0 起，实例内唯一
	Status        TaskStatus      `gorm:"column:status" json:"status"`
	Hyperparams   json.RawMessage `gorm:"column:hyperparams;type:json" json:"hyperparams"`
	Results       json.RawMessage `gorm:"column:results;type:json" json:"results,omitempty"`                 // 仅 COMPLETED
	MetricsHistory json.RawMessage `gorm:"column:metrics_history;type:json" json:"metrics_history,omitempty"` // epoch 维度的指标序列
	ErrorMsg      *string         `gorm:"column:error_msg" json:"error,omitempty"` // 仅 FAILED
	ModelPath     string          `gorm:"column:model_path" json:"model_path,omitempty"`
	TrainTaskID   *string         `gorm:"column:train_task_id;size:36" json:"train_task_id,omitempty"` // 测试任务回指训练任务
	StartedAt     *time.Time      `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt    *time.Time      `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// MetricsPoint 一次进度上报，epoch 为序
type MetricsPoint struct {
	Epoch   int                `json:"epoch"`
	Metrics map[string]float64 `json:"metrics"`
}
