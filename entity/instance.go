package entity

import "time"

// Instance 一次提交产生的一批任务（训练或测试）。
// 创建后只读，状态全部从成员任务实时推导。
type Instance struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	DatasetID uint      `gorm:"column:dataset_id;index" json:"dataset_id"`
	Kind      TaskKind  `gorm:"column:kind" json:"kind"`
	UseGPU    bool      `gorm:"column:use_gpu" json:"use_gpu"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Tasks []Task `gorm:"-" json:"tasks,omitempty"` // 运行期装配，不落库
}

func (Instance) TableName() string {
	return "instances"
}

// AggregateStatus 聚合视图，实时计算，不缓存
type AggregateStatus struct {
	InstanceID      uint               `json:"instance_id"`
	Status          TaskStatus         `json:"status"`
	Progress        float64            `json:"progress"` // 百分比，两位小数
	PerStatusCounts map[TaskStatus]int `json:"per_status_counts"`
	CurrentTaskID   *string            `json:"current_task_id,omitempty"`
	Total           int                `json:"total"`
}
