package entity

import (
	"encoding/json"
	"time"
)

// BestModelSelection 当前最优模型指针，每个数据集至多一条 (upsert)。
// 它是缓存而不是事实来源：随时可以从最新测试实例的 COMPLETED 任务重算。
type BestModelSelection struct {
	ID          uint            `gorm:"primaryKey;column:id" json:"id"`
	DatasetID   uint            `gorm:"column:dataset_id;uniqueIndex" json:"dataset_id"`
	TrainTaskID string          `gorm:"column:train_task_id;size:36" json:"train_task_id"`
	TestTaskID  string          `gorm:"column:test_task_id;size:36" json:"test_task_id"`
	Metric      string          `gorm:"column:metric" json:"metric"`
	Score       float64         `gorm:"column:score" json:"score"`
	ModelPath   string          `gorm:"column:model_path" json:"model_path"`
	Hyperparams json.RawMessage `gorm:"column:hyperparams;type:json" json:"hyperparams"`
	SelectedAt  time.Time       `gorm:"column:selected_at;autoUpdateTime" json:"selected_at"`
}

func (BestModelSelection) TableName() string {
	return "best_model_selections"
}
